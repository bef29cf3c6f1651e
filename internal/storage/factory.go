package storage

import (
	"context"
	"fmt"

	"github.com/yourname/sleeptoggle/internal"
	"github.com/yourname/sleeptoggle/internal/config"
)

// Backends holds the opened stores. Samples is nil when the configured
// health backend does not keep samples in a repository.
type Backends struct {
	State   StateStore
	Samples SampleRepository
	closers []func() error
}

// Close closes every opened backend once, returning the first error.
func (b *Backends) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	b.closers = nil
	return first
}

// Open opens the state store and sample repository selected by cfg. Backends
// named by both settings share one connection.
func Open(ctx context.Context, cfg *config.Config, logger internal.Logger) (*Backends, error) {
	b := &Backends{}
	var (
		file *FileStorage
		pg   *PostgresStorage
		lite *SQLiteStorage
	)

	fileStorage := func() (*FileStorage, error) {
		if file != nil {
			return file, nil
		}
		stateFile, samplesFile := "", ""
		if cfg.StateBackend == "file" {
			stateFile = cfg.StateFile
		}
		if cfg.HealthBackend == "file" {
			samplesFile = cfg.SamplesFile
		}
		s, err := NewFileStorage(stateFile, samplesFile, logger)
		if err != nil {
			return nil, err
		}
		file = s
		b.closers = append(b.closers, s.Close)
		return s, nil
	}
	postgres := func() (*PostgresStorage, error) {
		if pg != nil {
			return pg, nil
		}
		s, err := NewPostgresStorage(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		pg = s
		b.closers = append(b.closers, s.Close)
		return s, nil
	}
	sqlite := func() (*SQLiteStorage, error) {
		if lite != nil {
			return lite, nil
		}
		s, err := NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		lite = s
		b.closers = append(b.closers, s.Close)
		return s, nil
	}

	var err error
	switch cfg.StateBackend {
	case "file":
		b.State, err = fileStorage()
	case "postgres":
		b.State, err = postgres()
	case "sqlite":
		b.State, err = sqlite()
	case "redis":
		var r *RedisStateStore
		r, err = NewRedisStateStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err == nil {
			b.State = r
			b.closers = append(b.closers, r.Close)
		}
	case "memory":
		b.State = NewMemoryStorage()
	default:
		err = fmt.Errorf("storage: unknown state backend %q", cfg.StateBackend)
	}
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	switch cfg.HealthBackend {
	case "file":
		b.Samples, err = fileStorage()
	case "postgres":
		b.Samples, err = postgres()
	case "sqlite":
		b.Samples, err = sqlite()
	}
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yourname/sleeptoggle/internal"
	_ "modernc.org/sqlite"
)

// SQLiteStorage keeps state and samples in a single local SQLite database.
type SQLiteStorage struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStorage opens (or creates) the database at dbPath.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sleep_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sleep_samples (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		value INTEGER NOT NULL,
		start_time INTEGER NOT NULL,
		end_time INTEGER NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_samples_start ON sleep_samples(start_time);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM sleep_state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query state: %w", err)
	}
	return value, true, nil
}

func (s *SQLiteStorage) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sleep_state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM sleep_state WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) SaveSample(ctx context.Context, smp *internal.SleepSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sleep_samples (id, kind, value, start_time, end_time, source, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		smp.ID, string(smp.Kind), smp.Value, smp.StartTime.UnixNano(), smp.EndTime.UnixNano(), smp.Source, smp.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListSamples(ctx context.Context) ([]internal.SleepSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, kind, value, start_time, end_time, source, created_at FROM sleep_samples ORDER BY start_time, id",
	)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	samples := []internal.SleepSample{}
	for rows.Next() {
		var smp internal.SleepSample
		var kind string
		var start, end, created int64
		if err := rows.Scan(&smp.ID, &kind, &smp.Value, &start, &end, &smp.Source, &created); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		smp.Kind = internal.IntervalKind(kind)
		smp.StartTime = time.Unix(0, start).UTC()
		smp.EndTime = time.Unix(0, end).UTC()
		smp.CreatedAt = time.Unix(0, created).UTC()
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}

var _ StateStore = (*SQLiteStorage)(nil)
var _ SampleRepository = (*SQLiteStorage)(nil)

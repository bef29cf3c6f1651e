package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yourname/sleeptoggle/internal"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sleep_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sleep_samples (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	value      INTEGER NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	end_time   TIMESTAMPTZ NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);`

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(ctx context.Context, dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		logger.Errorf("failed to apply schema: %v", err)
		pool.Close()
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- StateStore ---
func (p *PostgresStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.pool.QueryRow(ctx, `SELECT value FROM sleep_state WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		p.logger.Errorf("failed to read state key %s: %v", key, err)
		return "", false, err
	}
	return value, true, nil
}

func (p *PostgresStorage) Set(ctx context.Context, key, value string) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO sleep_state (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	if err != nil {
		p.logger.Errorf("failed to write state key %s: %v", key, err)
		return err
	}
	return nil
}

func (p *PostgresStorage) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM sleep_state WHERE key = $1`, key); err != nil {
		p.logger.Errorf("failed to delete state key %s: %v", key, err)
		return err
	}
	return nil
}

// --- SampleRepository ---
func (p *PostgresStorage) SaveSample(ctx context.Context, s *internal.SleepSample) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO sleep_samples (id, kind, value, start_time, end_time, source, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, string(s.Kind), s.Value, s.StartTime, s.EndTime, s.Source, s.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert sample: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) ListSamples(ctx context.Context) ([]internal.SleepSample, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, kind, value, start_time, end_time, source, created_at FROM sleep_samples ORDER BY start_time ASC`)
	if err != nil {
		p.logger.Errorf("failed to query samples: %v", err)
		return nil, err
	}
	defer rows.Close()

	samples := []internal.SleepSample{}
	for rows.Next() {
		var s internal.SleepSample
		var kind string
		if err := rows.Scan(&s.ID, &kind, &s.Value, &s.StartTime, &s.EndTime, &s.Source, &s.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan sample: %v", err)
			return nil, err
		}
		s.Kind = internal.IntervalKind(kind)
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// --- Compile-time assertions ---
var _ StateStore = (*PostgresStorage)(nil)
var _ SampleRepository = (*PostgresStorage)(nil)

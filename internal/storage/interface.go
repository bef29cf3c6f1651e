package storage

import (
	"context"

	"github.com/yourname/sleeptoggle/internal"
)

// StateStore is a string-keyed durable key-value store. Get reports
// ok=false for an absent key.
type StateStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type SampleRepository interface {
	SaveSample(ctx context.Context, sample *internal.SleepSample) error
	ListSamples(ctx context.Context) ([]internal.SleepSample, error)
	Close() error
}

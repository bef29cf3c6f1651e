package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	KeyInBed      = "in_bed"
	KeyAsleep     = "asleep"
	KeyStartInBed = "start_in_bed"
	KeyStartSleep = "start_asleep"
	KeyShareSleep = "share_sleep_analysis"
)

// GetBool reads a boolean key; absent keys read as false.
func GetBool(ctx context.Context, s StateStore, key string) (bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("storage: key %q: %w", key, err)
	}
	return b, nil
}

func SetBool(ctx context.Context, s StateStore, key string, v bool) error {
	return s.Set(ctx, key, strconv.FormatBool(v))
}

// GetTime reads a timestamp key; absent keys read as nil.
func GetTime(ctx context.Context, s StateStore, key string) (*time.Time, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil, fmt.Errorf("storage: key %q: %w", key, err)
	}
	return &t, nil
}

// SetTime writes t, or deletes the key when t is nil.
func SetTime(ctx context.Context, s StateStore, key string, t *time.Time) error {
	if t == nil {
		return s.Delete(ctx, key)
	}
	return s.Set(ctx, key, t.UTC().Format(time.RFC3339Nano))
}

package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/yourname/sleeptoggle/internal"
)

// MemoryStorage is a process-local StateStore and SampleRepository.
// Setting FailWrites makes every Set, Delete and SaveSample return it.
type MemoryStorage struct {
	mu         sync.RWMutex
	state      map[string]string
	samples    []internal.SleepSample
	FailWrites error
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{state: make(map[string]string)}
}

func (m *MemoryStorage) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.state[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.state[key] = value
	return nil
}

func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	delete(m.state, key)
	return nil
}

func (m *MemoryStorage) SaveSample(ctx context.Context, sample *internal.SleepSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.samples = append(m.samples, *sample)
	return nil
}

func (m *MemoryStorage) ListSamples(ctx context.Context) ([]internal.SleepSample, error) {
	m.mu.RLock()
	out := make([]internal.SleepSample, len(m.samples))
	copy(out, m.samples)
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (m *MemoryStorage) Close() error { return nil }

var _ StateStore = (*MemoryStorage)(nil)
var _ SampleRepository = (*MemoryStorage)(nil)

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/yourname/sleeptoggle/internal"
)

// FileStorage keeps the toggle state and submitted samples in two JSON
// files. State writes are synchronous; sample writes are batched by a
// background worker and flushed on Close.
type FileStorage struct {
	state           map[string]string
	samples         map[string]*internal.SleepSample
	mu              sync.RWMutex
	stateFile       string
	samplesFile     string
	samplesDirty    bool
	saveMu          sync.Mutex
	saveSamplesChan chan struct{}
	shutdownChan    chan struct{}
	closeOnce       sync.Once
	saveDelay       time.Duration
	logger          internal.Logger
}

func NewFileStorage(stateFile, samplesFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		state:           make(map[string]string),
		samples:         make(map[string]*internal.SleepSample),
		stateFile:       stateFile,
		samplesFile:     samplesFile,
		saveSamplesChan: make(chan struct{}, 1),
		shutdownChan:    make(chan struct{}),
		saveDelay:       500 * time.Millisecond,
		logger:          logger,
	}

	if err := s.loadState(); err != nil {
		logger.Errorf("storage: failed to load state: %v", err)
		return nil, err
	}
	if err := s.loadSamples(); err != nil {
		logger.Errorf("storage: failed to load samples: %v", err)
		return nil, err
	}

	go s.saveSamplesWorker()

	return s, nil
}

func (s *FileStorage) loadState() error {
	if s.stateFile == "" {
		return nil
	}
	file, err := os.Open(s.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	var state map[string]string
	if err := json.NewDecoder(file).Decode(&state); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range state {
		s.state[k] = v
	}
	return nil
}

func (s *FileStorage) loadSamples() error {
	if s.samplesFile == "" {
		return nil
	}
	file, err := os.Open(s.samplesFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	var samples []*internal.SleepSample
	if err := json.NewDecoder(file).Decode(&samples); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, smp := range samples {
		s.samples[smp.ID] = smp
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

// saveStateLocked must be called with s.mu held.
func (s *FileStorage) saveStateLocked() error {
	if s.stateFile == "" {
		return errors.New("storage: no state file configured")
	}
	snapshot := make(map[string]string, len(s.state))
	for k, v := range s.state {
		snapshot[k] = v
	}
	return atomicWriteFileJSON(s.stateFile, snapshot)
}

func (s *FileStorage) saveSamples() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if !s.samplesDirty || s.samplesFile == "" {
		s.mu.Unlock()
		return nil
	}
	samples := make([]*internal.SleepSample, 0, len(s.samples))
	for _, smp := range s.samples {
		samples = append(samples, smp)
	}
	s.samplesDirty = false
	s.mu.Unlock()

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].StartTime.Before(samples[j].StartTime)
	})
	if err := atomicWriteFileJSON(s.samplesFile, samples); err != nil {
		s.mu.Lock()
		s.samplesDirty = true
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *FileStorage) saveSamplesWorker() {
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-s.saveSamplesChan:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := s.saveSamples(); err != nil {
				s.logger.Errorf("storage: error saving samples: %v", err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *FileStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.shutdownChan)
		// Save pending samples synchronously on shutdown
		err = s.saveSamples()
	})
	return err
}

// --- StateStore ---
func (s *FileStorage) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state[key]
	return v, ok, nil
}

func (s *FileStorage) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.state[key]
	s.state[key] = value
	if err := s.saveStateLocked(); err != nil {
		if had {
			s.state[key] = prev
		} else {
			delete(s.state, key)
		}
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	return nil
}

func (s *FileStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.state[key]
	if !had {
		return nil
	}
	delete(s.state, key)
	if err := s.saveStateLocked(); err != nil {
		s.state[key] = prev
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}

// --- SampleRepository ---
func (s *FileStorage) SaveSample(ctx context.Context, sample *internal.SleepSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[sample.ID] = sample
	s.samplesDirty = true
	select {
	case s.saveSamplesChan <- struct{}{}:
	default:
	}
	return nil
}

func (s *FileStorage) ListSamples(ctx context.Context) ([]internal.SleepSample, error) {
	s.mu.RLock()
	samples := make([]internal.SleepSample, 0, len(s.samples))
	for _, smp := range s.samples {
		samples = append(samples, *smp)
	}
	s.mu.RUnlock()
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].StartTime.Before(samples[j].StartTime)
	})
	return samples, nil
}

// --- Compile-time assertions ---
var _ StateStore = (*FileStorage)(nil)
var _ SampleRepository = (*FileStorage)(nil)

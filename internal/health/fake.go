package health

import (
	"context"
	"sync"

	"github.com/yourname/sleeptoggle/internal"
)

// FakeSink records submitted samples for test assertions.
type FakeSink struct {
	mu sync.Mutex

	// Samples contains all samples that were submitted successfully.
	Samples []internal.SleepSample

	// Missing makes Available report false.
	Missing bool

	// Status is returned by AuthorizationStatus.
	Status internal.AuthorizationStatus

	// SubmitError, if set, will be returned by Submit.
	SubmitError error

	// Attempts counts Submit calls, including failed ones.
	Attempts int
}

// NewFakeSink creates an available FakeSink with the given authorization.
func NewFakeSink(status internal.AuthorizationStatus) *FakeSink {
	return &FakeSink{Status: status}
}

func (f *FakeSink) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.Missing
}

func (f *FakeSink) AuthorizationStatus(context.Context, internal.IntervalKind) internal.AuthorizationStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Status == "" {
		return internal.AuthorizationUndetermined
	}
	return f.Status
}

func (f *FakeSink) RequestAuthorization(_ context.Context, share bool) (internal.AuthorizationStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if share {
		f.Status = internal.AuthorizationAuthorized
	} else {
		f.Status = internal.AuthorizationDenied
	}
	return f.Status, nil
}

func (f *FakeSink) Submit(_ context.Context, sample *internal.SleepSample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Attempts++
	if f.SubmitError != nil {
		return f.SubmitError
	}
	f.Samples = append(f.Samples, *sample)
	return nil
}

func (f *FakeSink) ListSamples(context.Context) ([]internal.SleepSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]internal.SleepSample, len(f.Samples))
	copy(out, f.Samples)
	return out, nil
}

var _ Sink = (*FakeSink)(nil)
var _ SampleLister = (*FakeSink)(nil)

// Package health provides the sinks that accept sleep-analysis samples and
// answer whether sharing them is allowed.
package health

import (
	"context"
	"fmt"

	"github.com/yourname/sleeptoggle/internal"
	"github.com/yourname/sleeptoggle/internal/storage"
)

// Sink is a health-data store.
type Sink interface {
	// Available reports whether a health-data store is present at all.
	Available() bool

	// AuthorizationStatus returns the current sharing decision for kind.
	AuthorizationStatus(ctx context.Context, kind internal.IntervalKind) internal.AuthorizationStatus

	// RequestAuthorization records the user's answer to the sharing prompt.
	RequestAuthorization(ctx context.Context, share bool) (internal.AuthorizationStatus, error)

	// Submit stores one sample. It is not retried.
	Submit(ctx context.Context, sample *internal.SleepSample) error
}

// SampleLister is implemented by sinks that can read back what was submitted.
type SampleLister interface {
	ListSamples(ctx context.Context) ([]internal.SleepSample, error)
}

// Permissions persists the sharing decision under storage.KeyShareSleep.
// One decision covers both interval kinds.
type Permissions struct {
	store  storage.StateStore
	logger internal.Logger
}

func NewPermissions(store storage.StateStore, logger internal.Logger) *Permissions {
	return &Permissions{store: store, logger: logger}
}

// Status reads the decision; unreadable or unknown values are undetermined.
func (p *Permissions) Status(ctx context.Context) internal.AuthorizationStatus {
	v, ok, err := p.store.Get(ctx, storage.KeyShareSleep)
	if err != nil {
		p.logger.Warnf("health: failed to read authorization: %v", err)
		return internal.AuthorizationUndetermined
	}
	if !ok {
		return internal.AuthorizationUndetermined
	}
	switch s := internal.AuthorizationStatus(v); s {
	case internal.AuthorizationAuthorized, internal.AuthorizationDenied:
		return s
	}
	return internal.AuthorizationUndetermined
}

func (p *Permissions) Set(ctx context.Context, share bool) (internal.AuthorizationStatus, error) {
	status := internal.AuthorizationDenied
	if share {
		status = internal.AuthorizationAuthorized
	}
	if err := p.store.Set(ctx, storage.KeyShareSleep, string(status)); err != nil {
		return p.Status(ctx), fmt.Errorf("%w: %w", internal.ErrPersistenceFailure, err)
	}
	return status, nil
}

// Unavailable is the sink used when no health-data store is configured.
type Unavailable struct{}

func (Unavailable) Available() bool { return false }

func (Unavailable) AuthorizationStatus(context.Context, internal.IntervalKind) internal.AuthorizationStatus {
	return internal.AuthorizationUndetermined
}

func (Unavailable) RequestAuthorization(context.Context, bool) (internal.AuthorizationStatus, error) {
	return internal.AuthorizationUndetermined, internal.ErrCapabilityUnavailable
}

func (Unavailable) Submit(context.Context, *internal.SleepSample) error {
	return internal.ErrCapabilityUnavailable
}

var _ Sink = Unavailable{}

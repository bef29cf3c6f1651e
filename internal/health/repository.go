package health

import (
	"context"
	"fmt"

	"github.com/yourname/sleeptoggle/internal"
	"github.com/yourname/sleeptoggle/internal/storage"
)

// RepositorySink stores samples in a storage.SampleRepository.
type RepositorySink struct {
	repo   storage.SampleRepository
	perms  *Permissions
	logger internal.Logger
}

func NewRepositorySink(repo storage.SampleRepository, perms *Permissions, logger internal.Logger) *RepositorySink {
	return &RepositorySink{repo: repo, perms: perms, logger: logger}
}

func (s *RepositorySink) Available() bool { return s.repo != nil }

func (s *RepositorySink) AuthorizationStatus(ctx context.Context, _ internal.IntervalKind) internal.AuthorizationStatus {
	return s.perms.Status(ctx)
}

func (s *RepositorySink) RequestAuthorization(ctx context.Context, share bool) (internal.AuthorizationStatus, error) {
	return s.perms.Set(ctx, share)
}

func (s *RepositorySink) Submit(ctx context.Context, sample *internal.SleepSample) error {
	if err := s.repo.SaveSample(ctx, sample); err != nil {
		s.logger.Errorf("health: failed to save sample %s: %v", sample.ID, err)
		return fmt.Errorf("%w: %w", internal.ErrSubmissionFailed, err)
	}
	s.logger.Infof("health: saved %s sample %s", sample.Kind, sample.ID)
	return nil
}

func (s *RepositorySink) ListSamples(ctx context.Context) ([]internal.SleepSample, error) {
	return s.repo.ListSamples(ctx)
}

var _ Sink = (*RepositorySink)(nil)
var _ SampleLister = (*RepositorySink)(nil)

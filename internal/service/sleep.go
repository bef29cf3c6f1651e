package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/yourname/sleeptoggle/internal"
	"github.com/yourname/sleeptoggle/internal/health"
	"github.com/yourname/sleeptoggle/internal/metrics"
	"github.com/yourname/sleeptoggle/internal/tracker"
)

var validate = validator.New()

// ValidateInterval checks a closed interval before it becomes a sample.
// Zero-length intervals are valid.
func ValidateInterval(c *internal.ClosedInterval) error {
	return validate.Struct(c)
}

func ValidateDecision(d *ReviewDecision) error {
	return validate.Struct(d)
}

// ToggleResult is what the outer surfaces render after a toggle.
type ToggleResult struct {
	State  internal.SleepState   `json:"state"`
	Labels internal.StatusLabels `json:"labels"`
	Review *PendingReview        `json:"review,omitempty"`
}

// Notice describes a blocking condition the surfaces must show.
type Notice struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Dismissed bool   `json:"dismissed"`
}

const (
	NoticePermissionDenied      = "permission_denied"
	NoticeCapabilityUnavailable = "capability_unavailable"
)

type Status struct {
	State          internal.SleepState          `json:"state"`
	Labels         internal.StatusLabels        `json:"labels"`
	Authorization  internal.AuthorizationStatus `json:"authorization"`
	Notice         *Notice                      `json:"notice,omitempty"`
	PendingReviews int                          `json:"pending_reviews"`
}

// SleepService routes closed intervals through review into the sink.
type SleepService struct {
	tracker *tracker.Tracker
	sink    health.Sink
	reviews *ReviewQueue
	metrics *metrics.Recorder
	clock   clockwork.Clock
	logger  internal.Logger
	source  string

	mu        sync.Mutex
	dismissed bool
}

type Options struct {
	Tracker *tracker.Tracker
	Sink    health.Sink
	Metrics *metrics.Recorder
	Clock   clockwork.Clock
	Logger  internal.Logger
	// Source is recorded on every sample.
	Source string
}

func NewSleepService(opts Options) *SleepService {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	sink := opts.Sink
	if sink == nil {
		sink = health.Unavailable{}
	}
	return &SleepService{
		tracker: opts.Tracker,
		sink:    sink,
		reviews: NewReviewQueue(),
		metrics: opts.Metrics,
		clock:   clock,
		logger:  opts.Logger,
		source:  opts.Source,
	}
}

// Toggle flips one flag. A closed interval is queued for review and
// returned with the result. A persistence failure is returned together with
// the result, since the transition itself has happened.
func (s *SleepService) Toggle(ctx context.Context, kind internal.IntervalKind) (*ToggleResult, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown interval kind %q", kind)
	}
	out, err := s.tracker.Transition(ctx, kind)
	if err != nil && !errors.Is(err, internal.ErrPersistenceFailure) {
		return nil, err
	}
	if err != nil {
		s.metrics.PersistenceFailure()
	}

	res := &ToggleResult{
		State:  out.State,
		Labels: tracker.Labels(out.State),
	}
	s.metrics.Toggle(string(kind), out.Closed == nil && out.Opened(kind))
	if out.Closed != nil {
		res.Review = s.reviews.Add(*out.Closed, s.clock.Now())
		s.logger.Infof("%s interval closed after %s, review %s pending", kind, out.Closed.Duration(), res.Review.ID)
	}
	return res, err
}

// SubmitReview turns the reviewed interval into a sample and hands it to
// the sink. The review is consumed whatever the outcome.
func (s *SleepService) SubmitReview(ctx context.Context, id string) (*internal.SleepSample, error) {
	review, err := s.reviews.Take(id)
	if err != nil {
		return nil, err
	}
	interval := review.Interval
	kind := string(interval.Kind)

	if err := ValidateInterval(&interval); err != nil {
		s.metrics.Submission(kind, "invalid")
		s.logger.Warnf("review %s holds an invalid %s interval: %v", id, kind, err)
		return nil, fmt.Errorf("%w: %w", internal.ErrInvalidInterval, err)
	}
	if !s.sink.Available() {
		s.metrics.Submission(kind, "unavailable")
		return nil, internal.ErrCapabilityUnavailable
	}
	switch s.sink.AuthorizationStatus(ctx, interval.Kind) {
	case internal.AuthorizationAuthorized:
	case internal.AuthorizationDenied:
		s.metrics.Submission(kind, "denied")
		return nil, internal.ErrPermissionDenied
	default:
		s.metrics.Submission(kind, "denied")
		return nil, internal.ErrAuthorizationUndetermined
	}

	sample := &internal.SleepSample{
		ID:        uuid.NewString(),
		Kind:      interval.Kind,
		Value:     interval.Kind.CategoryValue(),
		StartTime: interval.StartTime,
		EndTime:   interval.EndTime,
		Source:    s.source,
		CreatedAt: s.clock.Now(),
	}
	if err := s.sink.Submit(ctx, sample); err != nil {
		s.metrics.Submission(kind, "failed")
		s.logger.Errorf("failed to submit %s sample for review %s: %v", kind, id, err)
		if errors.Is(err, internal.ErrSubmissionFailed) || errors.Is(err, internal.ErrCapabilityUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", internal.ErrSubmissionFailed, err)
	}
	s.metrics.Submission(kind, "ok")
	return sample, nil
}

// DiscardReview drops a review without submitting. Tracker state is not
// touched.
func (s *SleepService) DiscardReview(ctx context.Context, id string) error {
	review, err := s.reviews.Take(id)
	if err != nil {
		return err
	}
	s.metrics.Discard(string(review.Interval.Kind))
	s.logger.Infof("discarded %s review %s", review.Interval.Kind, id)
	return nil
}

// Decide applies a validated ReviewDecision.
func (s *SleepService) Decide(ctx context.Context, id string, d *ReviewDecision) (*internal.SleepSample, error) {
	if err := ValidateDecision(d); err != nil {
		return nil, err
	}
	if d.Action == ActionDiscard {
		return nil, s.DiscardReview(ctx, id)
	}
	return s.SubmitReview(ctx, id)
}

func (s *SleepService) PendingReviews() []PendingReview {
	return s.reviews.List()
}

// ListSamples returns what the sink has stored, when it can say.
func (s *SleepService) ListSamples(ctx context.Context) ([]internal.SleepSample, error) {
	if !s.sink.Available() {
		return nil, internal.ErrCapabilityUnavailable
	}
	lister, ok := s.sink.(health.SampleLister)
	if !ok {
		return []internal.SleepSample{}, nil
	}
	return lister.ListSamples(ctx)
}

func (s *SleepService) AuthorizationStatus(ctx context.Context) internal.AuthorizationStatus {
	return s.sink.AuthorizationStatus(ctx, internal.KindAsleep)
}

func (s *SleepService) RequestAuthorization(ctx context.Context, share bool) (internal.AuthorizationStatus, error) {
	status, err := s.sink.RequestAuthorization(ctx, share)
	if err != nil {
		return status, err
	}
	s.logger.Infof("health data sharing is now %s", status)
	return status, nil
}

// Notice returns ErrCapabilityUnavailable or ErrPermissionDenied while a
// blocking notice applies, nil otherwise. It ignores dismissal.
func (s *SleepService) Notice(ctx context.Context) error {
	if !s.sink.Available() {
		return internal.ErrCapabilityUnavailable
	}
	if s.sink.AuthorizationStatus(ctx, internal.KindAsleep) == internal.AuthorizationDenied {
		return internal.ErrPermissionDenied
	}
	return nil
}

// Blocking is Notice with dismissal applied: nil once the user dismissed
// the notice, until the next Resume.
func (s *SleepService) Blocking(ctx context.Context) error {
	s.mu.Lock()
	dismissed := s.dismissed
	s.mu.Unlock()
	if dismissed {
		return nil
	}
	return s.Notice(ctx)
}

func (s *SleepService) DismissNotice() {
	s.mu.Lock()
	s.dismissed = true
	s.mu.Unlock()
}

// Resume re-evaluates the notice as on returning to the foreground.
func (s *SleepService) Resume(ctx context.Context) *Notice {
	s.mu.Lock()
	s.dismissed = false
	s.mu.Unlock()
	return s.notice(ctx)
}

func (s *SleepService) notice(ctx context.Context) *Notice {
	err := s.Notice(ctx)
	if err == nil {
		return nil
	}
	n := &Notice{Message: err.Error()}
	if errors.Is(err, internal.ErrCapabilityUnavailable) {
		n.Kind = NoticeCapabilityUnavailable
	} else {
		n.Kind = NoticePermissionDenied
	}
	s.mu.Lock()
	n.Dismissed = s.dismissed
	s.mu.Unlock()
	return n
}

func (s *SleepService) Status(ctx context.Context) Status {
	state := s.tracker.State()
	st := Status{
		State:          state,
		Labels:         tracker.Labels(state),
		Authorization:  internal.AuthorizationUndetermined,
		Notice:         s.notice(ctx),
		PendingReviews: s.reviews.Len(),
	}
	if s.sink.Available() {
		st.Authorization = s.AuthorizationStatus(ctx)
	}
	return st
}

package service

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourname/sleeptoggle/internal"
)

// PendingReview is a closed interval awaiting the user's submit or discard.
type PendingReview struct {
	ID        string                  `json:"id"`
	Interval  internal.ClosedInterval `json:"interval"`
	CreatedAt time.Time               `json:"created_at"`
}

// ReviewDecision is the body of a review confirmation.
type ReviewDecision struct {
	Action string `json:"action" validate:"required,oneof=submit discard"`
}

const (
	ActionSubmit  = "submit"
	ActionDiscard = "discard"
)

// ReviewQueue holds pending reviews in memory. Reviews do not survive a
// restart; the tracker state they came from already has.
type ReviewQueue struct {
	mu      sync.Mutex
	seq     uint64
	pending map[string]*queuedReview
}

type queuedReview struct {
	PendingReview
	seq uint64
}

func NewReviewQueue() *ReviewQueue {
	return &ReviewQueue{pending: make(map[string]*queuedReview)}
}

func (q *ReviewQueue) Add(interval internal.ClosedInterval, now time.Time) *PendingReview {
	r := PendingReview{ID: uuid.NewString(), Interval: interval, CreatedAt: now}
	q.mu.Lock()
	q.seq++
	q.pending[r.ID] = &queuedReview{PendingReview: r, seq: q.seq}
	q.mu.Unlock()
	return &r
}

// Take removes and returns the review with id.
func (q *ReviewQueue) Take(id string) (*PendingReview, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	r, ok := q.pending[id]
	if !ok {
		return nil, internal.ErrReviewNotFound
	}
	delete(q.pending, id)
	return &r.PendingReview, nil
}

// List returns pending reviews in the order they were added.
func (q *ReviewQueue) List() []PendingReview {
	q.mu.Lock()
	queued := make([]*queuedReview, 0, len(q.pending))
	for _, r := range q.pending {
		queued = append(queued, r)
	}
	q.mu.Unlock()
	sort.Slice(queued, func(i, j int) bool { return queued[i].seq < queued[j].seq })

	out := make([]PendingReview, len(queued))
	for i, r := range queued {
		out[i] = r.PendingReview
	}
	return out
}

func (q *ReviewQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

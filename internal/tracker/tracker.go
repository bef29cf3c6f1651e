// Package tracker holds the in-bed / asleep toggle state and mirrors it to a
// durable key-value store after every transition.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/yourname/sleeptoggle/internal"
	"github.com/yourname/sleeptoggle/internal/storage"
)

// Tracker is the sleep state machine: two independent flags, each with the
// start of its open interval.
type Tracker struct {
	mu     sync.Mutex
	store  storage.StateStore
	clock  clockwork.Clock
	logger internal.Logger
	state  internal.SleepState
}

// channel describes where one flag and its start timestamp live.
type channel struct {
	kind     internal.IntervalKind
	flagKey  string
	startKey string
	flag     *bool
	start    **time.Time
}

func New(store storage.StateStore, clock clockwork.Clock, logger internal.Logger) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tracker{store: store, clock: clock, logger: logger}
}

// Initialize restores the flags and open-interval starts from the store.
// Absent keys leave the zero state in place.
func (t *Tracker) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var st internal.SleepState
	var err error
	if st.InBed, err = storage.GetBool(ctx, t.store, storage.KeyInBed); err != nil {
		return fmt.Errorf("tracker: load %s: %w", storage.KeyInBed, err)
	}
	if st.Asleep, err = storage.GetBool(ctx, t.store, storage.KeyAsleep); err != nil {
		return fmt.Errorf("tracker: load %s: %w", storage.KeyAsleep, err)
	}
	if st.BedIntervalStart, err = storage.GetTime(ctx, t.store, storage.KeyStartInBed); err != nil {
		return fmt.Errorf("tracker: load %s: %w", storage.KeyStartInBed, err)
	}
	if st.SleepIntervalStart, err = storage.GetTime(ctx, t.store, storage.KeyStartSleep); err != nil {
		return fmt.Errorf("tracker: load %s: %w", storage.KeyStartSleep, err)
	}
	t.state = st
	t.logger.Debugf("tracker: restored in_bed=%t asleep=%t", st.InBed, st.Asleep)
	return nil
}

// ToggleBed flips the in-bed flag. Closing an interval returns it; opening
// one returns nil. The returned error only ever reports a persistence
// failure, in which case the in-memory transition has still happened.
func (t *Tracker) ToggleBed(ctx context.Context) (*internal.ClosedInterval, error) {
	return t.Toggle(ctx, internal.KindInBed)
}

// ToggleSleep is ToggleBed for the asleep flag.
func (t *Tracker) ToggleSleep(ctx context.Context) (*internal.ClosedInterval, error) {
	return t.Toggle(ctx, internal.KindAsleep)
}

func (t *Tracker) Toggle(ctx context.Context, kind internal.IntervalKind) (*internal.ClosedInterval, error) {
	out, err := t.Transition(ctx, kind)
	return out.Closed, err
}

// Outcome is the result of one transition: the interval it closed, if any,
// and the state right after it.
type Outcome struct {
	Closed *internal.ClosedInterval
	State  internal.SleepState
}

// Opened reports whether the transition opened an interval of kind.
func (o Outcome) Opened(kind internal.IntervalKind) bool {
	if kind == internal.KindAsleep {
		return o.State.Asleep
	}
	return o.State.InBed
}

// Transition is Toggle that also returns the state snapshot taken under the
// same lock as the flip.
func (t *Tracker) Transition(ctx context.Context, kind internal.IntervalKind) (Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, err := t.channel(kind)
	if err != nil {
		return Outcome{}, err
	}

	now := t.clock.Now()
	var closed *internal.ClosedInterval
	if *ch.flag {
		*ch.flag = false
		if *ch.start == nil {
			t.logger.Warnf("tracker: %s closed without a recorded start, no interval emitted", kind)
		} else {
			closed = &internal.ClosedInterval{Kind: kind, StartTime: **ch.start, EndTime: now}
		}
		*ch.start = nil
	} else {
		*ch.flag = true
		*ch.start = &now
	}

	err = t.persist(ctx, ch)
	return Outcome{Closed: closed, State: t.snapshotLocked()}, err
}

func (t *Tracker) channel(kind internal.IntervalKind) (channel, error) {
	switch kind {
	case internal.KindInBed:
		return channel{kind, storage.KeyInBed, storage.KeyStartInBed, &t.state.InBed, &t.state.BedIntervalStart}, nil
	case internal.KindAsleep:
		return channel{kind, storage.KeyAsleep, storage.KeyStartSleep, &t.state.Asleep, &t.state.SleepIntervalStart}, nil
	}
	return channel{}, fmt.Errorf("tracker: unknown interval kind %q", kind)
}

func (t *Tracker) persist(ctx context.Context, ch channel) error {
	flagErr := storage.SetBool(ctx, t.store, ch.flagKey, *ch.flag)
	startErr := storage.SetTime(ctx, t.store, ch.startKey, *ch.start)
	if err := errors.Join(flagErr, startErr); err != nil {
		t.logger.Errorf("tracker: failed to persist %s: %v", ch.kind, err)
		return fmt.Errorf("%w: %s: %w", internal.ErrPersistenceFailure, ch.kind, err)
	}
	return nil
}

// State returns a copy of the current state.
func (t *Tracker) State() internal.SleepState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() internal.SleepState {
	st := t.state
	if st.BedIntervalStart != nil {
		v := *st.BedIntervalStart
		st.BedIntervalStart = &v
	}
	if st.SleepIntervalStart != nil {
		v := *st.SleepIntervalStart
		st.SleepIntervalStart = &v
	}
	return st
}

// CurrentStatusLabels renders the current flags.
func (t *Tracker) CurrentStatusLabels() internal.StatusLabels {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Labels(t.state)
}

package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/sleeptoggle/internal"
	"github.com/yourname/sleeptoggle/internal/storage"
)

var epoch = time.Date(2026, 1, 1, 22, 0, 0, 0, time.UTC)

func setupTracker(t *testing.T) (*Tracker, *storage.MemoryStorage, *clockwork.FakeClock) {
	t.Helper()
	store := storage.NewMemoryStorage()
	clock := clockwork.NewFakeClockAt(epoch)
	tr := New(store, clock, internal.NewNopLogger())
	require.NoError(t, tr.Initialize(context.Background()))
	return tr, store, clock
}

func TestInitialize_FreshStateDefaults(t *testing.T) {
	tr, _, _ := setupTracker(t)
	st := tr.State()
	assert.False(t, st.InBed)
	assert.False(t, st.Asleep)
	assert.Nil(t, st.BedIntervalStart)
	assert.Nil(t, st.SleepIntervalStart)
}

func TestToggleBed_OpenThenClose(t *testing.T) {
	ctx := context.Background()
	tr, _, clock := setupTracker(t)

	closed, err := tr.ToggleBed(ctx)
	require.NoError(t, err)
	assert.Nil(t, closed)
	assert.True(t, tr.State().InBed)

	clock.Advance(8 * time.Hour)
	closed, err = tr.ToggleBed(ctx)
	require.NoError(t, err)
	require.NotNil(t, closed)
	assert.Equal(t, internal.KindInBed, closed.Kind)
	assert.True(t, closed.StartTime.Equal(epoch))
	assert.True(t, closed.EndTime.Equal(epoch.Add(8*time.Hour)))
	assert.Equal(t, 8*time.Hour, closed.Duration())
	assert.False(t, tr.State().InBed)
}

func TestToggleBed_FlagAlternates(t *testing.T) {
	ctx := context.Background()
	tr, _, clock := setupTracker(t)

	for i := 0; i < 10; i++ {
		closed, err := tr.ToggleBed(ctx)
		require.NoError(t, err)
		wantInBed := i%2 == 0
		assert.Equal(t, wantInBed, tr.State().InBed, "call %d", i)
		assert.Equal(t, !wantInBed, closed != nil, "call %d", i)
		clock.Advance(time.Minute)
	}
	st := tr.State()
	assert.False(t, st.InBed)
	assert.Nil(t, st.BedIntervalStart, "no pending interval after an even number of toggles")
}

func TestToggles_AreIndependent(t *testing.T) {
	ctx := context.Background()
	tr, _, clock := setupTracker(t)

	_, err := tr.ToggleBed(ctx)
	require.NoError(t, err)
	bedStart := tr.State().BedIntervalStart

	clock.Advance(30 * time.Minute)
	_, err = tr.ToggleSleep(ctx)
	require.NoError(t, err)
	st := tr.State()
	assert.True(t, st.InBed)
	assert.True(t, st.Asleep)
	assert.True(t, st.BedIntervalStart.Equal(*bedStart))

	clock.Advance(7 * time.Hour)
	closed, err := tr.ToggleSleep(ctx)
	require.NoError(t, err)
	require.NotNil(t, closed)
	assert.Equal(t, internal.KindAsleep, closed.Kind)
	st = tr.State()
	assert.True(t, st.InBed, "closing sleep leaves bed untouched")
	assert.True(t, st.BedIntervalStart.Equal(*bedStart))
}

func TestToggleSleep_WithoutBed(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := setupTracker(t)

	_, err := tr.ToggleSleep(ctx)
	require.NoError(t, err)
	st := tr.State()
	assert.True(t, st.Asleep)
	assert.False(t, st.InBed)
}

func TestToggleSleep_ZeroLengthInterval(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := setupTracker(t)

	_, err := tr.ToggleSleep(ctx)
	require.NoError(t, err)
	closed, err := tr.ToggleSleep(ctx)
	require.NoError(t, err)
	require.NotNil(t, closed)
	assert.True(t, closed.StartTime.Equal(closed.EndTime))
	assert.Zero(t, closed.Duration())
}

func TestToggle_EndNeverBeforeStart(t *testing.T) {
	ctx := context.Background()
	tr, _, clock := setupTracker(t)

	for _, d := range []time.Duration{0, time.Nanosecond, time.Second, 9 * time.Hour} {
		_, err := tr.ToggleBed(ctx)
		require.NoError(t, err)
		clock.Advance(d)
		closed, err := tr.ToggleBed(ctx)
		require.NoError(t, err)
		require.NotNil(t, closed)
		assert.False(t, closed.EndTime.Before(closed.StartTime))
	}
}

func TestToggle_ClearsStartOnClose(t *testing.T) {
	ctx := context.Background()
	tr, store, clock := setupTracker(t)

	_, err := tr.ToggleBed(ctx)
	require.NoError(t, err)
	_, ok, _ := store.Get(ctx, storage.KeyStartInBed)
	assert.True(t, ok)

	clock.Advance(time.Hour)
	_, err = tr.ToggleBed(ctx)
	require.NoError(t, err)
	assert.Nil(t, tr.State().BedIntervalStart)
	_, ok, _ = store.Get(ctx, storage.KeyStartInBed)
	assert.False(t, ok, "start key removed from the store on close")
}

func TestInitialize_RestoresOpenInterval(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	persisted := epoch.Add(-6 * time.Hour)
	require.NoError(t, storage.SetBool(ctx, store, storage.KeyInBed, true))
	require.NoError(t, storage.SetTime(ctx, store, storage.KeyStartInBed, &persisted))

	clock := clockwork.NewFakeClockAt(epoch)
	tr := New(store, clock, internal.NewNopLogger())
	require.NoError(t, tr.Initialize(ctx))
	assert.True(t, tr.State().InBed)

	closed, err := tr.ToggleBed(ctx)
	require.NoError(t, err)
	require.NotNil(t, closed)
	assert.Equal(t, internal.KindInBed, closed.Kind)
	assert.True(t, closed.StartTime.Equal(persisted))
	assert.True(t, closed.EndTime.Equal(epoch))
	assert.False(t, tr.State().InBed)
}

func TestInitialize_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	tr, store, clock := setupTracker(t)
	_, err := tr.ToggleSleep(ctx)
	require.NoError(t, err)

	restarted := New(store, clock, internal.NewNopLogger())
	require.NoError(t, restarted.Initialize(ctx))
	assert.Equal(t, tr.State().Asleep, restarted.State().Asleep)
	assert.True(t, restarted.State().SleepIntervalStart.Equal(epoch))
}

func TestInitialize_CorruptValue(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	require.NoError(t, store.Set(ctx, storage.KeyAsleep, "sometimes"))

	tr := New(store, clockwork.NewFakeClock(), internal.NewNopLogger())
	assert.Error(t, tr.Initialize(ctx))
}

func TestToggle_MissingStartEmitsNothing(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	require.NoError(t, storage.SetBool(ctx, store, storage.KeyInBed, true))

	tr := New(store, clockwork.NewFakeClockAt(epoch), internal.NewNopLogger())
	require.NoError(t, tr.Initialize(ctx))
	closed, err := tr.ToggleBed(ctx)
	require.NoError(t, err)
	assert.Nil(t, closed)
	assert.False(t, tr.State().InBed)
}

func TestToggle_PersistenceFailureStillTransitions(t *testing.T) {
	ctx := context.Background()
	tr, store, clock := setupTracker(t)

	_, err := tr.ToggleBed(ctx)
	require.NoError(t, err)

	store.FailWrites = errors.New("read-only filesystem")
	clock.Advance(time.Hour)
	closed, err := tr.ToggleBed(ctx)
	assert.ErrorIs(t, err, internal.ErrPersistenceFailure)
	require.NotNil(t, closed, "the interval is still emitted")
	assert.False(t, tr.State().InBed)
}

func TestToggle_UnknownKind(t *testing.T) {
	tr, _, _ := setupTracker(t)
	_, err := tr.Toggle(context.Background(), internal.IntervalKind("napping"))
	assert.Error(t, err)
}

func TestState_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := setupTracker(t)
	_, err := tr.ToggleBed(ctx)
	require.NoError(t, err)

	st := tr.State()
	*st.BedIntervalStart = st.BedIntervalStart.Add(time.Hour)
	assert.True(t, tr.State().BedIntervalStart.Equal(epoch))
}

func TestCurrentStatusLabels(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := setupTracker(t)

	l := tr.CurrentStatusLabels()
	assert.Equal(t, internal.StatusLabels{Bed: "Not in bed", Sleep: "Awake", BedButton: "Get in bed", SleepButton: "Sleep"}, l)
	assert.Equal(t, l, tr.CurrentStatusLabels(), "labels are stable without a toggle")

	_, _ = tr.ToggleBed(ctx)
	_, _ = tr.ToggleSleep(ctx)
	l = tr.CurrentStatusLabels()
	assert.Equal(t, internal.StatusLabels{Bed: "In bed", Sleep: "Asleep", BedButton: "Get up", SleepButton: "Wake up"}, l)
}

func TestLabels_AllStates(t *testing.T) {
	tests := []struct {
		inBed, asleep bool
		bed, sleep    string
	}{
		{false, false, LabelNotInBed, LabelAwake},
		{true, false, LabelInBed, LabelAwake},
		{false, true, LabelNotInBed, LabelAsleep},
		{true, true, LabelInBed, LabelAsleep},
	}
	for _, tt := range tests {
		l := Labels(internal.SleepState{InBed: tt.inBed, Asleep: tt.asleep})
		assert.Equal(t, tt.bed, l.Bed)
		assert.Equal(t, tt.sleep, l.Sleep)
	}
}

func TestTransition_SnapshotMatchesFlip(t *testing.T) {
	ctx := context.Background()
	tr, _, clock := setupTracker(t)

	out, err := tr.Transition(ctx, internal.KindAsleep)
	require.NoError(t, err)
	assert.Nil(t, out.Closed)
	assert.True(t, out.Opened(internal.KindAsleep))
	require.NotNil(t, out.State.SleepIntervalStart)
	assert.True(t, out.State.SleepIntervalStart.Equal(epoch))

	// The snapshot is a copy, later transitions do not reach it.
	clock.Advance(time.Hour)
	next, err := tr.Transition(ctx, internal.KindAsleep)
	require.NoError(t, err)
	require.NotNil(t, next.Closed)
	assert.False(t, next.Opened(internal.KindAsleep))
	assert.Nil(t, next.State.SleepIntervalStart)
	assert.True(t, out.State.Asleep)
	require.NotNil(t, out.State.SleepIntervalStart)
}

func TestTransition_ConcurrentSnapshotsAreConsistent(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := setupTracker(t)

	const n = 64
	outcomes := make(chan Outcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := tr.Transition(ctx, internal.KindInBed)
			assert.NoError(t, err)
			outcomes <- out
		}()
	}
	wg.Wait()
	close(outcomes)

	opened := 0
	for out := range outcomes {
		assert.NotEqual(t, out.Closed != nil, out.State.InBed)
		if out.Opened(internal.KindInBed) {
			opened++
		}
	}
	assert.Equal(t, n/2, opened)
	assert.False(t, tr.State().InBed)
}

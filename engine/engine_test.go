package engine_test

import (
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meeting-room-bot/engine"
	"meeting-room-bot/model"
	"meeting-room-bot/store"
)

// fakeClock is a settable clock for deterministic tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func newTestEngine(t *testing.T, clock *fakeClock) (*engine.Engine, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "bookings.db"))
	require.NoError(t, err)
	eng := engine.New(st, engine.Config{
		OpenHour:  8,
		CloseHour: 20,
		SlotStep:  30 * time.Minute,
		Now:       clock.Now,
	})
	return eng, st
}

var base = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return time.Date(2024, 1, 1, h, m, 0, 0, time.UTC)
}

func TestEndToEndScenario(t *testing.T) {
	clock := &fakeClock{t: base}
	eng, _ := newTestEngine(t, clock)

	b1, err := eng.CreateBooking(1, "Alice", at(9, 0), at(10, 0), "sync")
	require.NoError(t, err)
	assert.Equal(t, int64(1), b1.ID)
	assert.Equal(t, model.StatusActive, b1.Status)

	_, err = eng.CreateBooking(2, "Bob", at(9, 30), at(10, 30), "standup")
	assert.ErrorIs(t, err, engine.ErrConflict)

	b2, err := eng.CreateBooking(2, "Bob", at(10, 0), at(10, 30), "standup")
	require.NoError(t, err)
	assert.Equal(t, int64(2), b2.ID)

	err = eng.CancelBooking(b1.ID, 2)
	assert.ErrorIs(t, err, engine.ErrNotOwner)

	require.NoError(t, eng.CancelBooking(b1.ID, 1))

	free, err := eng.IsSlotFree(at(9, 0), at(10, 0))
	require.NoError(t, err)
	assert.True(t, free)
}

func TestBoundaryTouchingDoesNotConflict(t *testing.T) {
	clock := &fakeClock{t: base}
	eng, _ := newTestEngine(t, clock)

	_, err := eng.CreateBooking(1, "Alice", at(10, 0), at(10, 30), "a")
	require.NoError(t, err)

	// Ends exactly when the next one starts: not an overlap.
	_, err = eng.CreateBooking(2, "Bob", at(10, 30), at(11, 0), "b")
	require.NoError(t, err)

	_, err = eng.CreateBooking(3, "Carol", at(9, 0), at(10, 0), "c")
	require.NoError(t, err)
}

func TestCreateBookingValidation(t *testing.T) {
	clock := &fakeClock{t: base}
	eng, _ := newTestEngine(t, clock)

	_, err := eng.CreateBooking(1, "Alice", at(10, 0), at(10, 0), "x")
	assert.ErrorIs(t, err, engine.ErrInvalidInterval)

	_, err = eng.CreateBooking(1, "Alice", at(11, 0), at(10, 0), "x")
	assert.ErrorIs(t, err, engine.ErrInvalidInterval)

	_, err = eng.CreateBooking(1, "Alice", at(10, 0), at(11, 0), "")
	assert.ErrorIs(t, err, engine.ErrEmptyDescription)
}

func TestCancelOwnershipAndIdempotence(t *testing.T) {
	clock := &fakeClock{t: base}
	eng, st := newTestEngine(t, clock)

	b, err := eng.CreateBooking(7, "Owner", at(12, 0), at(13, 0), "1:1")
	require.NoError(t, err)

	// Foreign cancel: denied, booking untouched.
	assert.ErrorIs(t, eng.CancelBooking(b.ID, 8), engine.ErrNotOwner)
	got, err := st.GetBooking(b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, got.Status)

	// Owner cancel succeeds and stamps the cancellation time.
	require.NoError(t, eng.CancelBooking(b.ID, 7))
	got, err = st.GetBooking(b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)
	assert.True(t, got.CancelledAt.Equal(base))

	// Re-cancelling a cancelled booking reports not-found.
	assert.ErrorIs(t, eng.CancelBooking(b.ID, 7), engine.ErrNotFound)

	// Unknown id too.
	assert.ErrorIs(t, eng.CancelBooking(9999, 7), engine.ErrNotFound)
}

func TestUpcomingWindow(t *testing.T) {
	clock := &fakeClock{t: base}
	eng, _ := newTestEngine(t, clock)

	mk := func(owner int64, start time.Time, desc string) {
		_, err := eng.CreateBooking(owner, "U", start, start.Add(time.Hour), desc)
		require.NoError(t, err)
	}
	mk(1, base.Add(time.Hour), "in an hour")
	mk(2, base.AddDate(0, 0, 3), "in three days")
	mk(3, base.AddDate(0, 0, 10), "in ten days")

	got, err := eng.ListUpcoming(7)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "in an hour", got[0].Description)
	assert.Equal(t, "in three days", got[1].Description)
}

func TestListForDateAndOwner(t *testing.T) {
	clock := &fakeClock{t: base}
	eng, _ := newTestEngine(t, clock)

	_, err := eng.CreateBooking(1, "Alice", at(9, 0), at(10, 0), "today")
	require.NoError(t, err)
	_, err = eng.CreateBooking(1, "Alice", base.AddDate(0, 0, 1), base.AddDate(0, 0, 1).Add(time.Hour), "tomorrow")
	require.NoError(t, err)
	_, err = eng.CreateBooking(2, "Bob", at(14, 0), at(15, 0), "bob today")
	require.NoError(t, err)

	byDate, err := eng.ListForDate(base)
	require.NoError(t, err)
	require.Len(t, byDate, 2)
	assert.Equal(t, "today", byDate[0].Description)
	assert.Equal(t, "bob today", byDate[1].Description)

	mine, err := eng.ListForOwner(1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "today", mine[0].Description)
	assert.Equal(t, "tomorrow", mine[1].Description)
}

func TestRetentionSweep(t *testing.T) {
	clock := &fakeClock{t: base}
	eng, st := newTestEngine(t, clock)

	// Cancelled 31 days before base: eligible.
	clock.Set(base.AddDate(0, 0, -31))
	old, err := eng.CreateBooking(1, "A", at(9, 0), at(10, 0), "old")
	require.NoError(t, err)
	require.NoError(t, eng.CancelBooking(old.ID, 1))

	// Cancelled 29 days before base: kept.
	clock.Set(base.AddDate(0, 0, -29))
	recent, err := eng.CreateBooking(1, "A", at(9, 0), at(10, 0), "recent")
	require.NoError(t, err)
	require.NoError(t, eng.CancelBooking(recent.ID, 1))

	// Active and ancient: never purged.
	clock.Set(base.AddDate(0, 0, -40))
	active, err := eng.CreateBooking(2, "B", at(11, 0), at(12, 0), "still active")
	require.NoError(t, err)

	clock.Set(base)
	purged, err := eng.SweepRetention(30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	gone, err := st.GetBooking(old.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := st.GetBooking(recent.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)

	alive, err := st.GetBooking(active.ID)
	require.NoError(t, err)
	require.NotNil(t, alive)
	assert.Equal(t, model.StatusActive, alive.Status)
}

func TestDaySlots(t *testing.T) {
	clock := &fakeClock{t: base}
	eng, _ := newTestEngine(t, clock)

	_, err := eng.CreateBooking(1, "Alice", at(10, 0), at(11, 0), "meeting")
	require.NoError(t, err)

	slots, err := eng.DaySlots(base)
	require.NoError(t, err)
	// 8:00 to 20:00 at 30-minute steps.
	require.Len(t, slots, 24)

	byTime := make(map[string]bool, len(slots))
	for _, s := range slots {
		byTime[s.Start.Format("15:04")] = s.Free
	}
	assert.True(t, byTime["09:30"])
	assert.False(t, byTime["10:00"])
	assert.False(t, byTime["10:30"])
	assert.True(t, byTime["11:00"])
}

func TestRaceSafety(t *testing.T) {
	clock := &fakeClock{t: base}
	eng, _ := newTestEngine(t, clock)

	const racers = 8
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(owner int64) {
			defer wg.Done()
			_, err := eng.CreateBooking(owner, "racer", at(15, 0), at(16, 0), "contested")
			errs <- err
		}(int64(i + 1))
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			assert.ErrorIs(t, err, engine.ErrConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, conflicts)
}

func TestNoOverlapInvariant(t *testing.T) {
	clock := &fakeClock{t: base}
	eng, st := newTestEngine(t, clock)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		start := base.Add(time.Duration(rng.Intn(12*60)) * time.Minute)
		end := start.Add(time.Duration(30+rng.Intn(180)) * time.Minute)
		_, err := eng.CreateBooking(int64(i), "gen", start, end, "random")
		if err != nil {
			assert.ErrorIs(t, err, engine.ErrConflict)
			continue
		}

		active, err := st.ActiveInWindow(base.AddDate(0, 0, -1), base.AddDate(0, 0, 2))
		require.NoError(t, err)
		for a := 0; a < len(active); a++ {
			for b := a + 1; b < len(active); b++ {
				assert.Falsef(t, active[a].Overlaps(active[b].StartTime, active[b].EndTime),
					"bookings %d and %d overlap", active[a].ID, active[b].ID)
			}
		}
	}
}

func TestNotifyFiredOnSuccessOnly(t *testing.T) {
	clock := &fakeClock{t: base}
	eng, _ := newTestEngine(t, clock)

	created := make(chan *model.Booking, 1)
	eng.SetNotify(func(b *model.Booking) { created <- b })

	b, err := eng.CreateBooking(1, "Alice", at(9, 0), at(10, 0), "sync")
	require.NoError(t, err)

	select {
	case got := <-created:
		assert.Equal(t, b.ID, got.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not dispatched")
	}

	_, err = eng.CreateBooking(2, "Bob", at(9, 0), at(10, 0), "clash")
	assert.ErrorIs(t, err, engine.ErrConflict)
	select {
	case <-created:
		t.Fatal("conflicting create must not notify")
	case <-time.After(100 * time.Millisecond):
	}
}

package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meeting-room-bot/model"
	"meeting-room-bot/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "bookings.db"))
	require.NoError(t, err)
	return st
}

var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func booking(owner int64, startH, endH int, desc string) *model.Booking {
	return &model.Booking{
		OwnerID:     owner,
		OwnerName:   "user",
		StartTime:   day.Add(time.Duration(startH) * time.Hour),
		EndTime:     day.Add(time.Duration(endH) * time.Hour),
		Description: desc,
		CreatedAt:   day,
		Status:      model.StatusActive,
	}
}

func TestAllocateIDMonotonic(t *testing.T) {
	st := newTestStore(t)

	first, err := st.AllocateID()
	require.NoError(t, err)
	second, err := st.AllocateID()
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}

func TestIDsNeverReusedAfterPurge(t *testing.T) {
	st := newTestStore(t)

	b := booking(1, 9, 10, "doomed")
	require.NoError(t, st.CreateBookingIfFree(b))
	highest := b.ID

	cancelled := day
	ok, err := st.UpdateBooking(b.ID, func(b *model.Booking) bool {
		b.Status = model.StatusCancelled
		b.CancelledAt = &cancelled
		return true
	})
	require.NoError(t, err)
	require.True(t, ok)

	n, err := st.PurgeCancelledBefore(day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	next, err := st.AllocateID()
	require.NoError(t, err)
	assert.Greater(t, next, highest)
}

func TestCreateBookingIfFreeRejectsOverlap(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.CreateBookingIfFree(booking(1, 9, 11, "first")))

	clash := booking(2, 10, 12, "clash")
	err := st.CreateBookingIfFree(clash)
	assert.ErrorIs(t, err, store.ErrOverlap)
	// Rejected create must not consume an id or insert anything.
	assert.Zero(t, clash.ID)

	got, err := st.ActiveInWindow(day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCancelledBookingsDoNotBlock(t *testing.T) {
	st := newTestStore(t)

	b := booking(1, 9, 10, "cancelled")
	require.NoError(t, st.CreateBookingIfFree(b))
	_, err := st.UpdateBooking(b.ID, func(b *model.Booking) bool { b.Status = model.StatusCancelled; return true })
	require.NoError(t, err)

	n, err := st.CountActiveOverlapping(day.Add(9*time.Hour), day.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, st.CreateBookingIfFree(booking(2, 9, 10, "replacement")))
}

func TestListOrdering(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.CreateBookingIfFree(booking(1, 14, 15, "afternoon")))
	require.NoError(t, st.CreateBookingIfFree(booking(2, 9, 10, "morning")))
	require.NoError(t, st.CreateBookingIfFree(booking(3, 11, 12, "noon")))

	got, err := st.ActiveInWindow(day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "morning", got[0].Description)
	assert.Equal(t, "noon", got[1].Description)
	assert.Equal(t, "afternoon", got[2].Description)
}

func TestUpdateBookingMissing(t *testing.T) {
	st := newTestStore(t)

	ok, err := st.UpdateBooking(12345, func(b *model.Booking) bool { b.Status = model.StatusCancelled; return true })
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetBookingAbsent(t *testing.T) {
	st := newTestStore(t)

	got, err := st.GetBooking(42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPurgeFallsBackToCreatedAt(t *testing.T) {
	st := newTestStore(t)

	// Cancelled but without a cancellation timestamp: age is judged by
	// creation time.
	b := booking(1, 9, 10, "legacy cancel")
	require.NoError(t, st.CreateBookingIfFree(b))
	_, err := st.UpdateBooking(b.ID, func(b *model.Booking) bool { b.Status = model.StatusCancelled; return true })
	require.NoError(t, err)

	n, err := st.PurgeCancelledBefore(day.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPreferenceUpsert(t *testing.T) {
	st := newTestStore(t)

	got, err := st.GetPreference(100)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, st.SetPreference(&model.UserPreference{
		UserID: 100, Language: model.LangRU, FirstName: "Ivan", UpdatedAt: day,
	}))
	require.NoError(t, st.SetPreference(&model.UserPreference{
		UserID: 100, Language: model.LangAZ, FirstName: "İvan", UpdatedAt: day.Add(time.Hour),
	}))

	got, err = st.GetPreference(100)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.LangAZ, got.Language)
	assert.Equal(t, "İvan", got.FirstName)
}

func TestStats(t *testing.T) {
	st := newTestStore(t)

	a := booking(1, 9, 10, "a")
	a.OwnerName = "Alice"
	require.NoError(t, st.CreateBookingIfFree(a))
	b := booking(1, 11, 12, "b")
	b.OwnerName = "Alice"
	require.NoError(t, st.CreateBookingIfFree(b))
	c := booking(2, 14, 15, "c")
	c.OwnerName = "Bob"
	require.NoError(t, st.CreateBookingIfFree(c))

	stats, err := st.Stats(day.Add(8 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalActive)
	assert.Equal(t, int64(3), stats.Today)
	assert.Equal(t, "Alice", stats.TopOwner)
	assert.Equal(t, int64(2), stats.TopCount)
}

package engine

import (
	"errors"
	"time"

	"meeting-room-bot/model"
	"meeting-room-bot/store"
)

// Typed results of booking operations. The front-end maps each to a
// localized message; none of them is fatal.
var (
	// ErrConflict: the requested interval overlaps an active booking.
	ErrConflict = errors.New("engine: slot already booked")
	// ErrNotOwner: cancellation attempted by someone else. Reported as a
	// generic denial so the true owner is not leaked.
	ErrNotOwner = errors.New("engine: booking belongs to another user")
	// ErrNotFound: no such active booking.
	ErrNotFound = errors.New("engine: booking not found")
	// ErrInvalidInterval: start is not strictly before end.
	ErrInvalidInterval = errors.New("engine: start must precede end")
	// ErrEmptyDescription: bookings require a description.
	ErrEmptyDescription = errors.New("engine: description is required")
)

// Clock supplies the engine's notion of "now". All availability, window
// and retention arithmetic goes through one clock so a single fixed
// offset is used everywhere.
type Clock func() time.Time

// FixedZoneClock returns wall time in a fixed UTC offset, truncated to
// the minute. Minute precision is all the schedule ever compares at.
func FixedZoneClock(offsetHours int) Clock {
	loc := time.FixedZone("room", offsetHours*3600)
	return func() time.Time {
		return time.Now().In(loc).Truncate(time.Minute)
	}
}

// Config carries the room's public hours, the displayed slot granularity
// and the engine's collaborators.
type Config struct {
	OpenHour  int
	CloseHour int
	SlotStep  time.Duration
	Now       Clock
	// Notify is invoked after a successful create, on its own goroutine.
	// Best-effort: delivery failure never affects the booking.
	Notify func(*model.Booking)
}

// Engine enforces the scheduling invariants and exposes the booking
// lifecycle over an explicitly injected store.
type Engine struct {
	st  *store.Store
	cfg Config
}

func New(st *store.Store, cfg Config) *Engine {
	if cfg.Now == nil {
		cfg.Now = FixedZoneClock(0)
	}
	if cfg.SlotStep <= 0 {
		cfg.SlotStep = 30 * time.Minute
	}
	return &Engine{st: st, cfg: cfg}
}

// Now returns the engine's current wall time.
func (e *Engine) Now() time.Time {
	return e.cfg.Now()
}

// SetNotify installs the post-create notification callback. Wiring-time
// only, before the engine serves traffic.
func (e *Engine) SetNotify(fn func(*model.Booking)) {
	e.cfg.Notify = fn
}

// IsSlotFree reports whether no active booking overlaps the half-open
// interval [start, end).
func (e *Engine) IsSlotFree(start, end time.Time) (bool, error) {
	n, err := e.st.CountActiveOverlapping(start, end)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Slot is one displayed time option on the booking grid.
type Slot struct {
	Start time.Time
	Free  bool
}

// DaySlots builds the fixed-granularity grid between the room's open and
// close hours for the given day, marking each slot instant occupied when
// an active booking covers it. Rendering affordance only; the real
// conflict check happens in CreateBooking.
func (e *Engine) DaySlots(date time.Time) ([]Slot, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	bookings, err := e.st.ActiveStartingBetween(dayStart, dayStart.AddDate(0, 0, 1).Add(-time.Second))
	if err != nil {
		return nil, err
	}

	open := dayStart.Add(time.Duration(e.cfg.OpenHour) * time.Hour)
	closed := dayStart.Add(time.Duration(e.cfg.CloseHour) * time.Hour)

	var slots []Slot
	for t := open; t.Before(closed); t = t.Add(e.cfg.SlotStep) {
		free := true
		for i := range bookings {
			b := &bookings[i]
			if !t.Before(b.StartTime) && t.Before(b.EndTime) {
				free = false
				break
			}
		}
		slots = append(slots, Slot{Start: t, Free: free})
	}
	return slots, nil
}

// CreateBooking validates and commits a new reservation. Availability is
// re-checked inside the store's serialized transaction, not trusted from
// the slot grid the user saw, so concurrent creates for overlapping
// intervals resolve to exactly one winner.
func (e *Engine) CreateBooking(ownerID int64, ownerName string, start, end time.Time, description string) (*model.Booking, error) {
	if !start.Before(end) {
		return nil, ErrInvalidInterval
	}
	if description == "" {
		return nil, ErrEmptyDescription
	}

	b := &model.Booking{
		OwnerID:     ownerID,
		OwnerName:   ownerName,
		StartTime:   start,
		EndTime:     end,
		Description: description,
		CreatedAt:   e.cfg.Now(),
		Status:      model.StatusActive,
	}
	if err := e.st.CreateBookingIfFree(b); err != nil {
		if errors.Is(err, store.ErrOverlap) {
			return nil, ErrConflict
		}
		return nil, err
	}

	if e.cfg.Notify != nil {
		go e.cfg.Notify(b)
	}
	return b, nil
}

// CancelBooking transitions the booking to cancelled. Only the owner may
// cancel; a cancelled or unknown id reports ErrNotFound, so cancellation
// is effectively idempotent from the caller's point of view. The
// owner/status check runs inside the store's serialized section, on the
// same record that gets written.
func (e *Engine) CancelBooking(id, requesterID int64) error {
	now := e.cfg.Now()
	outcome := ErrNotFound
	applied, err := e.st.UpdateBooking(id, func(b *model.Booking) bool {
		if !b.Active() {
			outcome = ErrNotFound
			return false
		}
		if b.OwnerID != requesterID {
			outcome = ErrNotOwner
			return false
		}
		b.Status = model.StatusCancelled
		b.CancelledAt = &now
		return true
	})
	if err != nil {
		return err
	}
	if !applied {
		return outcome
	}
	return nil
}

// ListUpcoming returns active bookings still running now and starting
// within the next windowDays, ordered by start.
func (e *Engine) ListUpcoming(windowDays int) ([]model.Booking, error) {
	now := e.cfg.Now()
	return e.st.ActiveInWindow(now, now.AddDate(0, 0, windowDays))
}

// ListForDate returns active bookings starting on the given calendar day,
// ordered by start.
func (e *Engine) ListForDate(date time.Time) ([]model.Booking, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return e.st.ActiveStartingBetween(dayStart, dayStart.AddDate(0, 0, 1).Add(-time.Second))
}

// ListForOwner returns the owner's active bookings that have not yet
// ended, ordered by start.
func (e *Engine) ListForOwner(ownerID int64) ([]model.Booking, error) {
	return e.st.ActiveForOwner(ownerID, e.cfg.Now())
}

// SweepRetention permanently purges cancelled bookings older than
// horizonDays, measured from cancellation time (creation time as the
// fallback). Active bookings are never purged regardless of age.
func (e *Engine) SweepRetention(horizonDays int) (int64, error) {
	cutoff := e.cfg.Now().AddDate(0, 0, -horizonDays)
	return e.st.PurgeCancelledBefore(cutoff)
}

// Statistics summarizes the active booking set for the /stats command.
func (e *Engine) Statistics() (*store.Stats, error) {
	return e.st.Stats(e.cfg.Now())
}

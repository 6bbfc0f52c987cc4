package store

import (
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"meeting-room-bot/model"
)

// ErrOverlap is returned by CreateBookingIfFree when the requested
// interval collides with an existing active booking.
var ErrOverlap = errors.New("store: interval overlaps an active booking")

const bookingCounter = "bookings"

// Store persists bookings and user preferences. All mutating operations
// are serialized by a single mutex scoped to the instance, so a writer's
// full read-modify-write cycle is atomic with respect to other writers.
type Store struct {
	db *gorm.DB
	mu sync.Mutex
}

// Open opens (or creates) the sqlite database at path and migrates the
// schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	return New(db)
}

// New wraps an existing gorm handle, migrating the schema and seeding the
// booking id counter.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&model.Booking{}, &model.UserPreference{}, &model.Counter{}); err != nil {
		return nil, errors.Wrap(err, "migrate schema")
	}
	err := db.Where(model.Counter{Name: bookingCounter}).
		FirstOrCreate(&model.Counter{Name: bookingCounter}).Error
	if err != nil {
		return nil, errors.Wrap(err, "seed id counter")
	}
	return &Store{db: db}, nil
}

// nextID increments and returns the booking counter inside tx.
func nextID(tx *gorm.DB) (int64, error) {
	var c model.Counter
	if err := tx.First(&c, "name = ?", bookingCounter).Error; err != nil {
		return 0, errors.Wrap(err, "load id counter")
	}
	c.Value++
	if err := tx.Save(&c).Error; err != nil {
		return 0, errors.Wrap(err, "advance id counter")
	}
	return c.Value, nil
}

// AllocateID returns the next unused booking id. The counter only ever
// moves forward; ids are never reused even after purges.
func (s *Store) AllocateID() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = nextID(tx)
		return err
	})
	return id, err
}

// CreateBookingIfFree checks availability and inserts the booking in one
// serialized transaction. Re-checking here, under the lock, is what makes
// two racing creates for the same slot resolve to exactly one winner.
// Returns ErrOverlap, without mutating anything, when the slot is taken.
func (s *Store) CreateBookingIfFree(b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		var clashes int64
		err := tx.Model(&model.Booking{}).
			Where("status = ?", model.StatusActive).
			Where("start_time < ? AND end_time > ?", b.EndTime, b.StartTime).
			Count(&clashes).Error
		if err != nil {
			return errors.Wrap(err, "check availability")
		}
		if clashes > 0 {
			return ErrOverlap
		}
		if b.ID == 0 {
			if b.ID, err = nextID(tx); err != nil {
				return err
			}
		}
		return errors.Wrap(tx.Create(b).Error, "insert booking")
	})
}

// GetBooking returns the booking with the given id, or nil when absent.
func (s *Store) GetBooking(id int64) (*model.Booking, error) {
	var b model.Booking
	err := s.db.First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load booking")
	}
	return &b, nil
}

// UpdateBooking loads the booking and applies mut to it inside one
// serialized transaction; the change is saved only when mut returns
// true, so callers can gate the write on what they actually read.
// Returns false when the id does not exist or mut declined.
func (s *Store) UpdateBooking(id int64, mut func(*model.Booking) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var applied bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var b model.Booking
		err := tx.First(&b, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "load booking")
		}
		if !mut(&b) {
			return nil
		}
		applied = true
		return errors.Wrap(tx.Save(&b).Error, "save booking")
	})
	return applied, err
}

// CountActiveOverlapping counts active bookings overlapping the half-open
// interval [start, end).
func (s *Store) CountActiveOverlapping(start, end time.Time) (int64, error) {
	var n int64
	err := s.db.Model(&model.Booking{}).
		Where("status = ?", model.StatusActive).
		Where("start_time < ? AND end_time > ?", end, start).
		Count(&n).Error
	return n, errors.Wrap(err, "count overlaps")
}

// ordered applies the deterministic list order: start ascending, id as
// tie-break.
func ordered(q *gorm.DB) *gorm.DB {
	return q.Order("start_time ASC, id ASC")
}

// ActiveInWindow lists active bookings still running after from and
// starting before to.
func (s *Store) ActiveInWindow(from, to time.Time) ([]model.Booking, error) {
	var out []model.Booking
	err := ordered(s.db.
		Where("status = ?", model.StatusActive).
		Where("end_time > ? AND start_time < ?", from, to)).
		Find(&out).Error
	return out, errors.Wrap(err, "list window")
}

// ActiveStartingBetween lists active bookings whose start falls inside
// [from, to] inclusive.
func (s *Store) ActiveStartingBetween(from, to time.Time) ([]model.Booking, error) {
	var out []model.Booking
	err := ordered(s.db.
		Where("status = ?", model.StatusActive).
		Where("start_time >= ? AND start_time <= ?", from, to)).
		Find(&out).Error
	return out, errors.Wrap(err, "list by date")
}

// ActiveForOwner lists the owner's active bookings that end after the
// given instant.
func (s *Store) ActiveForOwner(ownerID int64, after time.Time) ([]model.Booking, error) {
	var out []model.Booking
	err := ordered(s.db.
		Where("status = ?", model.StatusActive).
		Where("owner_id = ? AND end_time > ?", ownerID, after)).
		Find(&out).Error
	return out, errors.Wrap(err, "list by owner")
}

// PurgeCancelledBefore permanently removes cancelled bookings whose
// cancellation time (creation time when cancellation time is absent) is
// older than cutoff. Active records are never touched.
func (s *Store) PurgeCancelledBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.
		Where("status = ?", model.StatusCancelled).
		Where("COALESCE(cancelled_at, created_at) < ?", cutoff).
		Delete(&model.Booking{})
	return res.RowsAffected, errors.Wrap(res.Error, "purge bookings")
}

// GetPreference returns the user's stored preference, or nil when the
// user never picked a language.
func (s *Store) GetPreference(userID int64) (*model.UserPreference, error) {
	var p model.UserPreference
	err := s.db.First(&p, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load preference")
	}
	return &p, nil
}

// SetPreference upserts the user's preference row.
func (s *Store) SetPreference(p *model.UserPreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(p).Error
	return errors.Wrap(err, "save preference")
}

// Stats summarizes the active booking set.
type Stats struct {
	TotalActive int64
	Today       int64
	TopOwner    string
	TopCount    int64
}

// Stats computes booking statistics relative to now.
func (s *Store) Stats(now time.Time) (*Stats, error) {
	var st Stats
	err := s.db.Model(&model.Booking{}).
		Where("status = ? AND end_time > ?", model.StatusActive, now).
		Count(&st.TotalActive).Error
	if err != nil {
		return nil, errors.Wrap(err, "count active")
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	err = s.db.Model(&model.Booking{}).
		Where("status = ?", model.StatusActive).
		Where("start_time >= ? AND start_time < ?", dayStart, dayStart.AddDate(0, 0, 1)).
		Count(&st.Today).Error
	if err != nil {
		return nil, errors.Wrap(err, "count today")
	}

	var top struct {
		OwnerName string
		N         int64
	}
	err = s.db.Model(&model.Booking{}).
		Select("owner_name, COUNT(*) as n").
		Where("status = ?", model.StatusActive).
		Group("owner_id").
		Order("n DESC").
		Limit(1).
		Scan(&top).Error
	if err != nil {
		return nil, errors.Wrap(err, "top owner")
	}
	st.TopOwner = top.OwnerName
	st.TopCount = top.N
	return &st, nil
}

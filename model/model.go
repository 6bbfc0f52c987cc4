package model

import (
	"time"
)

// BookingStatus is the lifecycle state of a booking. Cancelled is terminal.
type BookingStatus string

const (
	StatusActive    BookingStatus = "active"
	StatusCancelled BookingStatus = "cancelled"
)

// Language is a user's preferred interface language.
type Language string

const (
	LangRU Language = "ru"
	LangAZ Language = "az"
)

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	return l == LangRU || l == LangAZ
}

// Booking is a single reservation of the meeting room. Times are naive
// local time at a fixed UTC offset, minute precision. IDs come from the
// store's counter, never from sqlite rowids, so they survive purges.
type Booking struct {
	ID          int64 `gorm:"primaryKey;autoIncrement:false"`
	OwnerID     int64 `gorm:"index"`
	OwnerName   string
	StartTime   time.Time `gorm:"index"`
	EndTime     time.Time
	Description string
	CreatedAt   time.Time
	CancelledAt *time.Time
	Status      BookingStatus `gorm:"index;default:active"`
}

// Active reports whether the booking still participates in conflict checks.
func (b *Booking) Active() bool {
	return b.Status == StatusActive
}

// Overlaps applies the half-open interval test: touching boundaries
// (one booking ends exactly when another starts) do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}

// UserPreference stores a user's chosen language plus denormalized
// profile fields refreshed whenever the user picks a language.
type UserPreference struct {
	UserID    int64 `gorm:"primaryKey"`
	Language  Language
	FirstName string
	LastName  string
	Username  string
	UpdatedAt time.Time
}

// Counter is a named monotonic counter. The "bookings" row backs booking
// id allocation; its value never rewinds, even after purges.
type Counter struct {
	Name  string `gorm:"primaryKey"`
	Value int64
}

package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCanceled  BookingStatus = "canceled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCanceled:
		return true
	}
	return false
}

type Booking struct {
	Base
	PropertyID uuid.UUID       `db:"property_id"`
	UserID     uuid.UUID       `db:"user_id"`
	StartDate  time.Time       `db:"start_date"`
	EndDate    time.Time       `db:"end_date"`
	TotalPrice decimal.Decimal `db:"total_price"`
	Status     BookingStatus   `db:"status"`
}

func (b *Booking) OwnerID() uuid.UUID {
	return b.UserID
}

// Nights is the number of nights between start and end date.
func (b *Booking) Nights() int {
	return NightsBetween(b.StartDate, b.EndDate)
}

// NightsBetween counts calendar days from start to end, ignoring time of day.
func NightsBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

// PriceFor returns nights × nightly rate.
func PriceFor(start, end time.Time, pricePerNight decimal.Decimal) decimal.Decimal {
	return pricePerNight.Mul(decimal.NewFromInt(int64(NightsBetween(start, end))))
}

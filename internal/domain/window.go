package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrWindowEndNotAfterStart возвращается, когда конец окна не позже начала
	ErrWindowEndNotAfterStart = errors.New("domain: rental window end must be after start")

	// ErrWindowTooShort возвращается при нарушении минимальной длительности аренды
	ErrWindowTooShort = errors.New("domain: rental window is shorter than the minimum duration")
)

// RentalWindow represents a half-open rental interval [StartAt, EndAt).
// Both instants are timezone-normalized to UTC; a booking ending exactly
// when another starts does not overlap it.
type RentalWindow struct {
	StartAt time.Time
	EndAt   time.Time
}

// NewRentalWindow builds a window with both instants normalized to UTC.
func NewRentalWindow(startAt, endAt time.Time) RentalWindow {
	return RentalWindow{
		StartAt: startAt.UTC(),
		EndAt:   endAt.UTC(),
	}
}

// Validate enforces the window invariants: strictly positive duration
// and the 12-hour minimum rental rule.
func (w RentalWindow) Validate() error {
	if !w.EndAt.After(w.StartAt) {
		return ErrWindowEndNotAfterStart
	}
	if w.Duration() < MinRentalHours*time.Hour {
		return fmt.Errorf("%w: minimum is %d hours", ErrWindowTooShort, MinRentalHours)
	}
	return nil
}

// Duration returns the raw window duration.
func (w RentalWindow) Duration() time.Duration {
	return w.EndAt.Sub(w.StartAt)
}

// Overlaps reports whether two half-open intervals intersect.
// Adjacent windows (one ends exactly when the other starts) do not overlap.
func (w RentalWindow) Overlaps(other RentalWindow) bool {
	return w.StartAt.Before(other.EndAt) && other.StartAt.Before(w.EndAt)
}

// BilledUnits returns the number of billed 12-hour increments, rounding up.
func (w RentalWindow) BilledUnits() int64 {
	minutes := int64(w.Duration() / time.Minute)
	increment := int64(BillingIncrementHours * 60)
	return (minutes + increment - 1) / increment
}

// BilledHours returns the billed duration in hours: a 13-hour window
// bills as 24 hours, an exact 12-hour window bills as 12.
func (w RentalWindow) BilledHours() int64 {
	return w.BilledUnits() * BillingIncrementHours
}

// Quote prices the window at the given per-day rate (minor currency units).
// Each billed 12-hour unit costs half the daily rate, rounded up so the
// engine never undercharges by a minor unit.
func (w RentalWindow) Quote(pricePerDay int64) int64 {
	halfDayRate := (pricePerDay + 1) / 2
	return w.BilledUnits() * halfDayRate
}

func (w RentalWindow) String() string {
	return fmt.Sprintf("[%s, %s)", w.StartAt.Format(time.RFC3339), w.EndAt.Format(time.RFC3339))
}

package domain

import "time"

// CarBookingStatus represents the denormalized availability cache on a car row.
// It is mutated only by this engine; search/UI code may read it for filtering
// but the bookings overlap set is the authoritative availability truth.
type CarBookingStatus string

const (
	CarStatusAvailable   CarBookingStatus = "available"
	CarStatusHeld        CarBookingStatus = "held"
	CarStatusBooked      CarBookingStatus = "booked"
	CarStatusMaintenance CarBookingStatus = "maintenance"
)

// Car represents a rentable vehicle in the fleet.
type Car struct {
	ID            int64
	PricePerDay   int64 // minor currency units
	BookingStatus CarBookingStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsBookable returns true if the car can accept new holds.
// Only maintenance is a hard gate: held/booked cars may still accept
// non-overlapping windows, which the conflict check decides.
func (c *Car) IsBookable() bool {
	return c.BookingStatus != CarStatusMaintenance
}

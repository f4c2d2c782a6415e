package domain

import "time"

// BookingStatus represents the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusFailed    BookingStatus = "failed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusExpired   BookingStatus = "expired"
)

// PaymentStatus represents how much of a booking has been paid.
type PaymentStatus string

const (
	PaymentStatusUnpaid      PaymentStatus = "unpaid"
	PaymentStatusPartialHold PaymentStatus = "partial_hold"
	PaymentStatusPaid        PaymentStatus = "paid"
)

// PayMode selects the reservation strategy at hold creation time.
//
// PayModeFull: no money up front, a separate payment-initiation step follows.
// PayModeInstantHold: 10% is captured synchronously inside the hold transaction.
// PayModeGatewayHold: 10% goes through a gateway intent and settles via webhook.
type PayMode string

const (
	PayModeFull        PayMode = "full"
	PayModeInstantHold PayMode = "instant_hold"
	PayModeGatewayHold PayMode = "gateway_hold"
)

// IsValid returns true for a known pay mode.
func (m PayMode) IsValid() bool {
	return m == PayModeFull || m == PayModeInstantHold || m == PayModeGatewayHold
}

// IsHold returns true for the hold-based strategies.
func (m PayMode) IsHold() bool {
	return m == PayModeInstantHold || m == PayModeGatewayHold
}

// Booking represents a rental reservation for a car over a time window.
type Booking struct {
	ID            int64
	CarID         int64
	UserID        int64
	Window        RentalWindow
	Status        BookingStatus
	PaymentStatus PaymentStatus
	PayMode       PayMode

	// HoldUntil и HoldAmount заполнены только для холдовых режимов оплаты
	HoldUntil   *time.Time
	HoldAmount  *int64
	TotalAmount int64 // minor currency units

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanTransitionTo implements the booking state machine exhaustively.
// pending is the only non-terminal state; every terminal state admits nothing.
func (b *Booking) CanTransitionTo(next BookingStatus) bool {
	switch b.Status {
	case BookingStatusPending:
		switch next {
		case BookingStatusConfirmed, BookingStatusFailed, BookingStatusCancelled, BookingStatusExpired:
			return true
		}
		return false
	case BookingStatusConfirmed:
		// Подтвержденное бронирование может быть только отменено
		return next == BookingStatusCancelled
	case BookingStatusFailed, BookingStatusCancelled, BookingStatusExpired:
		return false
	default:
		return false
	}
}

// IsTerminal returns true if the booking no longer blocks the car's slot.
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingStatusFailed, BookingStatusCancelled, BookingStatusExpired:
		return true
	}
	return false
}

// IsStaleHold returns true for an unpaid hold whose deadline has elapsed.
// Stale holds do not count toward the conflict set even before the sweeper
// transitions them to expired.
func (b *Booking) IsStaleHold(now time.Time) bool {
	return b.Status == BookingStatusPending &&
		b.PaymentStatus == PaymentStatusUnpaid &&
		b.HoldUntil != nil &&
		b.HoldUntil.Before(now)
}

// IsSlotBlocking returns true if the booking occupies the car's slot
// at the given instant of evaluation.
func (b *Booking) IsSlotBlocking(now time.Time) bool {
	if b.Status != BookingStatusPending && b.Status != BookingStatusConfirmed {
		return false
	}
	return !b.IsStaleHold(now)
}

// CanBeCancelled returns true if the booking can be cancelled by its owner.
func (b *Booking) CanBeCancelled() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

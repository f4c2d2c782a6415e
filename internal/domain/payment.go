package domain

import "time"

// PaymentState represents the lifecycle of a single payment attempt.
// A payment is immutable once completed or failed.
type PaymentState string

const (
	PaymentStatePending   PaymentState = "pending"
	PaymentStateCompleted PaymentState = "completed"
	PaymentStateFailed    PaymentState = "failed"
)

// PaymentPurpose distinguishes what a payment settles.
type PaymentPurpose string

const (
	// PaymentPurposeHold предоплата 10%, закрепляющая холд
	PaymentPurposeHold PaymentPurpose = "hold"
	// PaymentPurposeBalance доплата остатка после холда
	PaymentPurposeBalance PaymentPurpose = "balance"
	// PaymentPurposeFull полная оплата без холда
	PaymentPurposeFull PaymentPurpose = "full"
)

// GatewayInternal marker gateway for payments captured synchronously
// by the engine itself (instant-hold path), without a provider round-trip.
const GatewayInternal = "internal"

// Payment represents one payment attempt against a booking.
// ProviderTransactionID carries a uniqueness constraint in the store and is
// the idempotency key for webhook reconciliation.
type Payment struct {
	ID                    int64
	BookingID             int64
	UserID                int64
	Amount                int64 // minor currency units
	Gateway               string
	ProviderTransactionID string
	Purpose               PaymentPurpose
	Status                PaymentState
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsTerminal returns true once the payment outcome is recorded.
// Reprocessing a terminal payment must be a no-op.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStateCompleted || p.Status == PaymentStateFailed
}

// SecuresSlot returns true if a successful outcome of this payment
// should confirm the booking (as opposed to merely securing the hold).
func (p *Payment) SecuresSlot() bool {
	return p.Purpose == PaymentPurposeBalance || p.Purpose == PaymentPurposeFull
}

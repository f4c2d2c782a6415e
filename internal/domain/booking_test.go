package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBooking_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{BookingStatusPending, BookingStatusConfirmed, true},
		{BookingStatusPending, BookingStatusFailed, true},
		{BookingStatusPending, BookingStatusCancelled, true},
		{BookingStatusPending, BookingStatusExpired, true},
		{BookingStatusPending, BookingStatusPending, false},

		{BookingStatusConfirmed, BookingStatusCancelled, true},
		{BookingStatusConfirmed, BookingStatusFailed, false},
		{BookingStatusConfirmed, BookingStatusExpired, false},
		{BookingStatusConfirmed, BookingStatusPending, false},

		{BookingStatusFailed, BookingStatusPending, false},
		{BookingStatusCancelled, BookingStatusConfirmed, false},
		{BookingStatusExpired, BookingStatusCancelled, false},
	}

	for _, tt := range tests {
		b := &Booking{Status: tt.from}
		assert.Equal(t, tt.want, b.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestBooking_IsStaleHold(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		booking Booking
		want    bool
	}{
		{
			name: "unpaid pending hold past deadline is stale",
			booking: Booking{
				Status:        BookingStatusPending,
				PaymentStatus: PaymentStatusUnpaid,
				HoldUntil:     &past,
			},
			want: true,
		},
		{
			name: "unpaid pending hold before deadline is not stale",
			booking: Booking{
				Status:        BookingStatusPending,
				PaymentStatus: PaymentStatusUnpaid,
				HoldUntil:     &future,
			},
			want: false,
		},
		{
			name: "secured hold past deadline is not stale",
			booking: Booking{
				Status:        BookingStatusPending,
				PaymentStatus: PaymentStatusPartialHold,
				HoldUntil:     &past,
			},
			want: false,
		},
		{
			name: "full-payment booking without deadline never goes stale",
			booking: Booking{
				Status:        BookingStatusPending,
				PaymentStatus: PaymentStatusUnpaid,
				HoldUntil:     nil,
			},
			want: false,
		},
		{
			name: "confirmed booking is never stale",
			booking: Booking{
				Status:        BookingStatusConfirmed,
				PaymentStatus: PaymentStatusPaid,
				HoldUntil:     &past,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.booking.IsStaleHold(now))
		})
	}
}

func TestBooking_IsSlotBlocking(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		booking Booking
		want    bool
	}{
		{
			name:    "confirmed booking blocks",
			booking: Booking{Status: BookingStatusConfirmed, PaymentStatus: PaymentStatusPaid},
			want:    true,
		},
		{
			name: "active pending hold blocks",
			booking: Booking{
				Status:        BookingStatusPending,
				PaymentStatus: PaymentStatusUnpaid,
				HoldUntil:     &future,
			},
			want: true,
		},
		{
			name: "stale hold does not block even before the sweeper runs",
			booking: Booking{
				Status:        BookingStatusPending,
				PaymentStatus: PaymentStatusUnpaid,
				HoldUntil:     &past,
			},
			want: false,
		},
		{
			name:    "cancelled booking does not block",
			booking: Booking{Status: BookingStatusCancelled},
			want:    false,
		},
		{
			name:    "expired booking does not block",
			booking: Booking{Status: BookingStatusExpired},
			want:    false,
		},
		{
			name:    "failed booking does not block",
			booking: Booking{Status: BookingStatusFailed},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.booking.IsSlotBlocking(now))
		})
	}
}

func TestBooking_CanBeCancelled(t *testing.T) {
	assert.True(t, (&Booking{Status: BookingStatusPending}).CanBeCancelled())
	assert.True(t, (&Booking{Status: BookingStatusConfirmed}).CanBeCancelled())
	assert.False(t, (&Booking{Status: BookingStatusFailed}).CanBeCancelled())
	assert.False(t, (&Booking{Status: BookingStatusCancelled}).CanBeCancelled())
	assert.False(t, (&Booking{Status: BookingStatusExpired}).CanBeCancelled())
}

func TestPayMode(t *testing.T) {
	assert.True(t, PayModeFull.IsValid())
	assert.True(t, PayModeInstantHold.IsValid())
	assert.True(t, PayModeGatewayHold.IsValid())
	assert.False(t, PayMode("subscription").IsValid())

	assert.False(t, PayModeFull.IsHold())
	assert.True(t, PayModeInstantHold.IsHold())
	assert.True(t, PayModeGatewayHold.IsHold())
}

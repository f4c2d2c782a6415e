package events

import (
	"context"
	"time"
)

// Type тип доменного события, совпадает с routing key в брокере
type Type string

const (
	BookingConfirmed Type = "booking.confirmed"
	BookingFailed    Type = "booking.failed"
	BookingExpired   Type = "booking.expired"

	// ConflictAfterPayment деньги списаны, но слот занят — событие для
	// операционной очереди ручных возвратов, никогда не глотается молча
	ConflictAfterPayment Type = "booking.ops.conflict_after_payment"
)

// BookingEvent доменное событие жизненного цикла бронирования
// Потребляется внешними сервисами уведомлений и операционной очередью
type BookingEvent struct {
	Type                  Type      `json:"type"`
	BookingID             int64     `json:"bookingId"`
	CarID                 int64     `json:"carId"`
	UserID                int64     `json:"userId"`
	ProviderTransactionID string    `json:"providerTransactionId,omitempty"`
	Amount                int64     `json:"amount,omitempty"`
	OccurredAt            time.Time `json:"occurredAt"`
}

// Publisher публикует доменные события
type Publisher interface {
	PublishBookingEvent(ctx context.Context, event BookingEvent) error
}

// NoopPublisher заглушка для выключенного брокера и тестов
type NoopPublisher struct{}

func (NoopPublisher) PublishBookingEvent(ctx context.Context, event BookingEvent) error {
	return nil
}

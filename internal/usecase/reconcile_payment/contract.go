package reconcile_payment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/events"
)

// PaymentRepository интерфейс репозитория платежей
type PaymentRepository interface {
	GetByProviderTransactionID(ctx context.Context, providerTxID string) (*domain.Payment, error)
	Complete(ctx context.Context, id int64) error
	Fail(ctx context.Context, id int64) error
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Confirm(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64) error
	SetPaymentStatus(ctx context.Context, id int64, from, to domain.PaymentStatus) error
}

// CarRepository интерфейс репозитория автомобилей
type CarRepository interface {
	UpdateBookingStatus(ctx context.Context, id int64, from, to domain.CarBookingStatus) error
	SetBookingStatus(ctx context.Context, id int64, to domain.CarBookingStatus) error
}

// ConflictDetector интерфейс проверки пересечений
type ConflictDetector interface {
	HasConflict(ctx context.Context, carID int64, window domain.RentalWindow, excludeBookingID *int64) (bool, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher интерфейс публикации доменных событий
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event events.BookingEvent) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Metrics интерфейс счетчиков движка
type Metrics interface {
	IncReconcile(outcome string)
	IncConflictAfterPayment()
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

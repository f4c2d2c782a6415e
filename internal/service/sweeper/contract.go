package sweeper

import (
	"context"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/events"
	storage "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	ExpireStale(ctx context.Context, now time.Time) ([]storage.ExpiredHold, error)
	CountSlotBlocking(ctx context.Context, carID int64, now time.Time) (int, error)
}

// CarRepository интерфейс репозитория автомобилей
type CarRepository interface {
	UpdateBookingStatus(ctx context.Context, id int64, from, to domain.CarBookingStatus) error
}

// EventPublisher интерфейс публикации событий жизненного цикла бронирований
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

// Metrics интерфейс метрик свипера
type Metrics interface {
	AddStaleHoldsExpired(n int)
}

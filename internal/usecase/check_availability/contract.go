package check_availability

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// ConflictDetector интерфейс проверки пересечений
type ConflictDetector interface {
	HasConflict(ctx context.Context, carID int64, window domain.RentalWindow, excludeBookingID *int64) (bool, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

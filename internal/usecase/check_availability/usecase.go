package check_availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Request модель запроса проверки доступности
type Request struct {
	CarID  int64
	Window domain.RentalWindow
}

// Response результат проверки
type Response struct {
	CarID     int64
	Window    domain.RentalWindow
	Available bool
}

// UseCase use case предварительной проверки доступности для UI
//
// Выполняется вне транзакции и НЕ является источником истины:
// авторитетная проверка повторяется внутри транзакции создания холда
type UseCase struct {
	detector ConflictDetector
	logger   Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(detector ConflictDetector, logger Logger) *UseCase {
	return &UseCase{
		detector: detector,
		logger:   logger,
	}
}

// Execute выполняет use case проверки доступности
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req.CarID <= 0 {
		return nil, fmt.Errorf("%w: carID must be positive", ErrInvalidInput)
	}

	if err := req.Window.Validate(); err != nil {
		if errors.Is(err, domain.ErrWindowEndNotAfterStart) || errors.Is(err, domain.ErrWindowTooShort) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hasConflict, err := uc.detector.HasConflict(ctx, req.CarID, req.Window, nil)
	if err != nil {
		uc.logger.Error("CheckAvailability: conflict check failed for car id=%d: %v", req.CarID, err)
		return nil, fmt.Errorf("%w: conflict check failed: %v", ErrInternal, err)
	}

	return &Response{
		CarID:     req.CarID,
		Window:    req.Window,
		Available: !hasConflict,
	}, nil
}

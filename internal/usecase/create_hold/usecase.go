package create_hold

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	carRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/car"
	paymentRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/payment"
	"github.com/m04kA/SMC-RentalService/pkg/ptr"
	"github.com/m04kA/SMC-RentalService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-RentalService/pkg/txmanager"
)

// UseCase use case создания холда: атомарная проверка пересечений
// и вставка бронирования с опциональной предоплатой
type UseCase struct {
	bookingRepo  BookingRepository
	carRepo      CarRepository
	paymentRepo  PaymentRepository
	detector     ConflictDetector
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
	metrics      Metrics
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	carRepo CarRepository,
	paymentRepo PaymentRepository,
	detector ConflictDetector,
	txManager TransactionManager,
	logger Logger,
	metrics Metrics,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		carRepo:      carRepo,
		paymentRepo:  paymentRepo,
		detector:     detector,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		metrics:      metrics,
	}
}

// Execute выполняет use case создания холда
// Проверка пересечений и все записи выполняются в одной сериализуемой
// транзакции: два конкурирующих холда на пересекающиеся окна дают ровно
// один успех и один ErrCarNotAvailable
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateHold: car=%d, user=%d, window=%s, payMode=%s, total=%d",
		req.CarID, req.UserID, req.Window, req.PayMode, req.TotalAmount)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateHold: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	var result *domain.Booking

	// 3. Выполняем операции с БД в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Получаем автомобиль с блокировкой строки
		car, err := uc.carRepo.GetByID(txCtx, req.CarID)
		if err != nil {
			if errors.Is(err, carRepo.ErrCarNotFound) {
				uc.logger.Warn("CreateHold: car id=%d not found", req.CarID)
				return ErrCarNotFound
			}
			uc.logger.Error("CreateHold: failed to get car id=%d: %v", req.CarID, err)
			return fmt.Errorf("%w: failed to get car: %v", ErrInternal, err)
		}

		if !car.IsBookable() {
			uc.logger.Warn("CreateHold: car id=%d is in maintenance", req.CarID)
			return ErrCarInMaintenance
		}

		// 3.2. Проверяем пересечение с занятыми слотами
		hasConflict, err := uc.detector.HasConflict(txCtx, req.CarID, req.Window, nil)
		if err != nil {
			uc.logger.Error("CreateHold: conflict check failed for car id=%d: %v", req.CarID, err)
			return fmt.Errorf("%w: conflict check failed: %v", ErrInternal, err)
		}
		if hasConflict {
			uc.logger.Warn("CreateHold: car id=%d not available for window=%s", req.CarID, req.Window)
			uc.metrics.IncHoldConflict()
			return ErrCarNotAvailable
		}

		// 3.3. Собираем бронирование в зависимости от режима оплаты
		booking := &domain.Booking{
			CarID:       req.CarID,
			UserID:      req.UserID,
			Window:      req.Window,
			Status:      domain.BookingStatusPending,
			PayMode:     req.PayMode,
			TotalAmount: req.TotalAmount,
		}

		if req.PayMode.IsHold() {
			booking.HoldAmount = ptr.Ptr(domain.ComputeHoldAmount(req.TotalAmount))
			booking.HoldUntil = ptr.Ptr(now.Add(domain.HoldTTL))
		}

		switch req.PayMode {
		case domain.PayModeInstantHold:
			// Предоплата списана синхронно — холд закреплен сразу
			booking.PaymentStatus = domain.PaymentStatusPartialHold
		default:
			// gateway_hold остается unpaid до подтверждения интента вебхуком,
			// full — до исхода полной оплаты
			booking.PaymentStatus = domain.PaymentStatusUnpaid
		}

		// 3.4. Сохраняем бронирование
		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			uc.logger.Error("CreateHold: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		// 3.5. Регистрируем платеж предоплаты
		if err := uc.createHoldPayment(txCtx, req, created); err != nil {
			return err
		}

		// 3.6. Обновляем кеш статуса автомобиля
		// Автомобиль может быть уже held/booked другим непересекающимся
		// бронированием — это не ошибка, кеш отражает последнее живое бронирование
		err = uc.carRepo.UpdateBookingStatus(txCtx, req.CarID, domain.CarStatusAvailable, domain.CarStatusHeld)
		if err != nil && !errors.Is(err, carRepo.ErrStatusNotUpdated) {
			uc.logger.Error("CreateHold: failed to update car status id=%d: %v", req.CarID, err)
			return fmt.Errorf("%w: failed to update car status: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		return nil, uc.mapTxError(err)
	}

	uc.logger.Info("CreateHold: successfully created booking id=%d for car=%d", result.ID, req.CarID)
	uc.metrics.IncHoldCreated(string(req.PayMode))

	return &Response{
		BookingID:   result.ID,
		Status:      string(result.Status),
		HoldAmount:  result.HoldAmount,
		HoldUntil:   result.HoldUntil,
		TotalAmount: result.TotalAmount,
		CreatedAt:   result.CreatedAt,
	}, nil
}

// createHoldPayment регистрирует платеж предоплаты для холдовых режимов
// instant_hold: completed платеж фиксируется сразу и сам является
// подтверждением резерва; gateway_hold: pending платеж закрывается вебхуком
func (uc *UseCase) createHoldPayment(ctx context.Context, req *Request, booking *domain.Booking) error {
	if !req.PayMode.IsHold() {
		// Полная оплата: платеж создается отдельным шагом инициации
		return nil
	}

	p := &domain.Payment{
		BookingID: booking.ID,
		UserID:    booking.UserID,
		Amount:    *booking.HoldAmount,
		Purpose:   domain.PaymentPurposeHold,
	}

	switch req.PayMode {
	case domain.PayModeInstantHold:
		p.Gateway = domain.GatewayInternal
		p.ProviderTransactionID = uuid.NewString()
		p.Status = domain.PaymentStateCompleted
	case domain.PayModeGatewayHold:
		p.Gateway = req.Gateway
		p.ProviderTransactionID = req.ProviderTransactionID
		p.Status = domain.PaymentStatePending
	}

	if _, err := uc.paymentRepo.Create(ctx, p); err != nil {
		if errors.Is(err, paymentRepo.ErrDuplicateProviderTransaction) {
			uc.logger.Warn("CreateHold: duplicate provider transaction id=%s", p.ProviderTransactionID)
			return ErrDuplicateProviderTransaction
		}
		uc.logger.Error("CreateHold: failed to create hold payment for booking id=%d: %v", booking.ID, err)
		return fmt.Errorf("%w: failed to create hold payment: %v", ErrInternal, err)
	}

	return nil
}

// mapTxError конвертирует инфраструктурные ошибки transaction manager'а
// в ретраибельную ErrTransientStore; доменные ошибки проходят как есть
func (uc *UseCase) mapTxError(err error) error {
	switch {
	case errors.Is(err, txmanager.ErrSerializationFailure),
		errors.Is(err, txmanager.ErrTxTimeout),
		errors.Is(err, simpletxmanager.ErrSerializationFailure),
		errors.Is(err, simpletxmanager.ErrTxTimeout):
		uc.logger.Error("CreateHold: transient store error: %v", err)
		return fmt.Errorf("%w: %v", ErrTransientStore, err)
	default:
		return err
	}
}

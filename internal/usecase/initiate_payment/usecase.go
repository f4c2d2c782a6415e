package initiate_payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	paymentRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/payment"
)

// UseCase use case инициации платежа: создает pending платеж на остаток
// (после холда) или полную стоимость, который позже закрывается вебхуком
//
// Транзакция не нужна: единственная запись — вставка платежа, а гонку
// по ключу идемпотентности ловит уникальный индекс provider_transaction_id
type UseCase struct {
	bookingRepo BookingRepository
	paymentRepo PaymentRepository
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(bookingRepo BookingRepository, paymentRepo PaymentRepository, logger Logger) *UseCase {
	return &UseCase{
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		logger:      logger,
	}
}

// Execute выполняет use case инициации платежа
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("InitiatePayment: booking=%d, user=%d, gateway=%s", req.BookingID, req.UserID, req.Gateway)

	// 1. Валидация входных данных
	if req.BookingID <= 0 {
		return nil, fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}
	if req.UserID <= 0 {
		return nil, fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}
	if req.Gateway == "" {
		return nil, fmt.Errorf("%w: gateway is required", ErrInvalidInput)
	}

	// 2. Получаем бронирование
	booking, err := uc.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Warn("InitiatePayment: booking id=%d not found", req.BookingID)
			return nil, ErrBookingNotFound
		}
		uc.logger.Error("InitiatePayment: failed to get booking id=%d: %v", req.BookingID, err)
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}

	// 3. Проверяем права доступа
	if booking.UserID != req.UserID {
		uc.logger.Warn("InitiatePayment: user=%d is not the owner of booking id=%d", req.UserID, req.BookingID)
		return nil, ErrAccessDenied
	}

	// 4. Платить можно только по pending бронированию
	if booking.Status != domain.BookingStatusPending {
		uc.logger.Warn("InitiatePayment: booking id=%d is %s, not payable", req.BookingID, booking.Status)
		return nil, ErrBookingNotPayable
	}

	// 5. Определяем назначение и сумму платежа
	purpose, amount := paymentFor(booking)

	providerTxID := req.ProviderTransactionID
	if providerTxID == "" {
		providerTxID = uuid.NewString()
	}

	// 6. Создаем pending платеж
	payment := &domain.Payment{
		BookingID:             booking.ID,
		UserID:                booking.UserID,
		Amount:                amount,
		Gateway:               req.Gateway,
		ProviderTransactionID: providerTxID,
		Purpose:               purpose,
		Status:                domain.PaymentStatePending,
	}

	created, err := uc.paymentRepo.Create(ctx, payment)
	if err != nil {
		if errors.Is(err, paymentRepo.ErrDuplicateProviderTransaction) {
			uc.logger.Warn("InitiatePayment: duplicate provider transaction id=%s", providerTxID)
			return nil, ErrDuplicateProviderTransaction
		}
		uc.logger.Error("InitiatePayment: failed to create payment for booking id=%d: %v", req.BookingID, err)
		return nil, fmt.Errorf("%w: failed to create payment: %v", ErrInternal, err)
	}

	uc.logger.Info("InitiatePayment: created payment id=%d for booking id=%d, amount=%d (%s)",
		created.ID, booking.ID, amount, purpose)

	return &Response{
		PaymentID:             created.ID,
		BookingID:             booking.ID,
		Amount:                created.Amount,
		Purpose:               string(created.Purpose),
		ProviderTransactionID: created.ProviderTransactionID,
		Status:                string(created.Status),
	}, nil
}

// paymentFor определяет назначение и сумму платежа по состоянию бронирования:
// после закрепленного холда платится остаток, иначе полная стоимость
func paymentFor(booking *domain.Booking) (domain.PaymentPurpose, int64) {
	if booking.PaymentStatus == domain.PaymentStatusPartialHold && booking.HoldAmount != nil {
		return domain.PaymentPurposeBalance, booking.TotalAmount - *booking.HoldAmount
	}
	return domain.PaymentPurposeFull, booking.TotalAmount
}

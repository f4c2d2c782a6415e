package reconcile_payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/events"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	carRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/car"
	paymentRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/payment"
	"github.com/m04kA/SMC-RentalService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-RentalService/pkg/txmanager"
)

// UseCase use case сверки платежа: атомарно применяет исход платежа
// к бронированию. Идемпотентен по provider_transaction_id: повторная
// доставка вебхука возвращает ранее записанный результат без побочных
// эффектов и без повторных событий
type UseCase struct {
	paymentRepo  PaymentRepository
	bookingRepo  BookingRepository
	carRepo      CarRepository
	detector     ConflictDetector
	txManager    TransactionManager
	publisher    EventPublisher
	timeProvider TimeProvider
	logger       Logger
	metrics      Metrics
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	paymentRepo PaymentRepository,
	bookingRepo BookingRepository,
	carRepo CarRepository,
	detector ConflictDetector,
	txManager TransactionManager,
	publisher EventPublisher,
	logger Logger,
	metrics Metrics,
) *UseCase {
	return &UseCase{
		paymentRepo:  paymentRepo,
		bookingRepo:  bookingRepo,
		carRepo:      carRepo,
		detector:     detector,
		txManager:    txManager,
		publisher:    publisher,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		metrics:      metrics,
	}
}

// reconcileOutcome накапливает результат и события внутри транзакции
// События публикуются только после успешного коммита: частично
// примененная сверка не должна порождать уведомлений
type reconcileOutcome struct {
	response *Response
	events   []events.BookingEvent
}

// Execute выполняет use case сверки платежа
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ReconcilePayment: providerTxID=%s, outcome=%s", req.ProviderTransactionID, req.Outcome)

	// 1. Валидация входных данных
	if req.ProviderTransactionID == "" {
		uc.logger.Warn("ReconcilePayment: empty provider transaction id")
		return nil, fmt.Errorf("%w: providerTransactionId is required", ErrInvalidInput)
	}
	if !req.Outcome.IsValid() {
		uc.logger.Warn("ReconcilePayment: unknown outcome %q", req.Outcome)
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrInvalidInput, req.Outcome)
	}

	var out reconcileOutcome

	// 2. Применяем исход в сериализуемой транзакции
	// Конкурирующие вызовы с одним provider_transaction_id сериализуются
	// на блокировке строки платежа: ровно один применяет переход,
	// остальные видят терминальный платеж
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		return uc.reconcileTx(txCtx, req, &out)
	})

	if err != nil {
		return nil, uc.mapTxError(err)
	}

	// 3. Публикуем события после коммита
	for _, event := range out.events {
		if err := uc.publisher.PublishBookingEvent(ctx, event); err != nil {
			// Событие потеряно, но состояние БД корректно — логируем
			uc.logger.Error("ReconcilePayment: failed to publish event %s for booking id=%d: %v",
				event.Type, event.BookingID, err)
		}
	}

	// 4. Метрики
	if out.response.AlreadyProcessed {
		uc.metrics.IncReconcile("replayed")
	} else {
		uc.metrics.IncReconcile(string(req.Outcome))
	}
	if out.response.ConflictAfterPayment {
		uc.metrics.IncConflictAfterPayment()
	}

	uc.logger.Info("ReconcilePayment: providerTxID=%s done: booking id=%d status=%s alreadyProcessed=%v conflictAfterPayment=%v",
		req.ProviderTransactionID, out.response.BookingID, out.response.BookingStatus,
		out.response.AlreadyProcessed, out.response.ConflictAfterPayment)

	return out.response, nil
}

func (uc *UseCase) reconcileTx(txCtx context.Context, req *Request, out *reconcileOutcome) error {
	// Получаем платеж с блокировкой строки
	payment, err := uc.paymentRepo.GetByProviderTransactionID(txCtx, req.ProviderTransactionID)
	if err != nil {
		if errors.Is(err, paymentRepo.ErrPaymentNotFound) {
			// Вебхук на платеж, который движок не регистрировал —
			// нарушение целостности, требует расследования
			uc.logger.Error("ReconcilePayment: payment not found for providerTxID=%s", req.ProviderTransactionID)
			return ErrPaymentNotFound
		}
		return fmt.Errorf("%w: failed to get payment: %v", ErrInternal, err)
	}

	booking, err := uc.bookingRepo.GetByID(txCtx, payment.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Error("ReconcilePayment: booking id=%d not found for payment id=%d", payment.BookingID, payment.ID)
			return fmt.Errorf("%w: booking id=%d not found", ErrInternal, payment.BookingID)
		}
		return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}

	// Идемпотентность: терминальный платеж означает повторную доставку —
	// возвращаем записанный результат без побочных эффектов
	if payment.IsTerminal() {
		uc.logger.Info("ReconcilePayment: payment id=%d already %s, replaying result", payment.ID, payment.Status)
		out.response = &Response{
			BookingID:        booking.ID,
			PaymentID:        payment.ID,
			BookingStatus:    string(booking.Status),
			PaymentState:     string(payment.Status),
			AlreadyProcessed: true,
		}
		out.events = nil
		return nil
	}

	switch req.Outcome {
	case OutcomeSucceeded:
		return uc.applySucceeded(txCtx, payment, booking, out)
	default:
		return uc.applyFailed(txCtx, payment, booking, out)
	}
}

// applySucceeded применяет успешный исход платежа
func (uc *UseCase) applySucceeded(txCtx context.Context, payment *domain.Payment, booking *domain.Booking, out *reconcileOutcome) error {
	if err := uc.paymentRepo.Complete(txCtx, payment.ID); err != nil {
		return fmt.Errorf("%w: failed to complete payment id=%d: %v", ErrInternal, payment.ID, err)
	}

	// Платеж холда лишь закрепляет резерв, бронирование остается pending
	if !payment.SecuresSlot() {
		return uc.applyHoldSecured(txCtx, payment, booking, out)
	}

	// Повторная проверка пересечений перед подтверждением: защита от
	// бронирования, проскочившего между созданием холда и оплатой
	// (например, по пути полной оплаты, где слот не был заблокирован холдом)
	hasConflict, err := uc.detector.HasConflict(txCtx, booking.CarID, booking.Window, &booking.ID)
	if err != nil {
		return fmt.Errorf("%w: conflict recheck failed: %v", ErrInternal, err)
	}

	if hasConflict || !booking.CanTransitionTo(domain.BookingStatusConfirmed) {
		return uc.applyConflictAfterPayment(txCtx, payment, booking, out)
	}

	if err := uc.bookingRepo.Confirm(txCtx, booking.ID); err != nil {
		// Exclusion constraint в БД — последний рубеж против двойного
		// подтверждения; трактуем так же, как конфликт выше
		if errors.Is(err, bookingRepo.ErrOverlapConstraint) {
			uc.logger.Warn("ReconcilePayment: overlap constraint fired on confirm of booking id=%d", booking.ID)
			return uc.applyConflictAfterPayment(txCtx, payment, booking, out)
		}
		return fmt.Errorf("%w: failed to confirm booking id=%d: %v", ErrInternal, booking.ID, err)
	}

	if err := uc.carRepo.SetBookingStatus(txCtx, booking.CarID, domain.CarStatusBooked); err != nil {
		return fmt.Errorf("%w: failed to update car status: %v", ErrInternal, err)
	}

	out.response = &Response{
		BookingID:     booking.ID,
		PaymentID:     payment.ID,
		BookingStatus: string(domain.BookingStatusConfirmed),
		PaymentState:  string(domain.PaymentStateCompleted),
	}
	out.events = []events.BookingEvent{uc.newEvent(events.BookingConfirmed, payment, booking)}
	return nil
}

// applyHoldSecured закрепляет холд после оплаты предоплаты через шлюз
func (uc *UseCase) applyHoldSecured(txCtx context.Context, payment *domain.Payment, booking *domain.Booking, out *reconcileOutcome) error {
	if booking.Status != domain.BookingStatusPending {
		// Холд уже умер (истек или отменен), а деньги списаны —
		// кейс для операционной очереди возвратов
		uc.logger.Warn("ReconcilePayment: hold payment id=%d succeeded for %s booking id=%d",
			payment.ID, booking.Status, booking.ID)
		out.response = &Response{
			BookingID:            booking.ID,
			PaymentID:            payment.ID,
			BookingStatus:        string(booking.Status),
			PaymentState:         string(domain.PaymentStateCompleted),
			ConflictAfterPayment: true,
		}
		out.events = []events.BookingEvent{uc.newEvent(events.ConflictAfterPayment, payment, booking)}
		return nil
	}

	// Оплата пришла после hold_until: пока холд был протухшим, он не
	// участвовал в проверках пересечений и слот мог занять другой клиент.
	// Повторно закрепляем холд только после перепроверки конфликтов
	if booking.IsStaleHold(uc.timeProvider.Now()) {
		hasConflict, err := uc.detector.HasConflict(txCtx, booking.CarID, booking.Window, &booking.ID)
		if err != nil {
			return fmt.Errorf("%w: conflict recheck failed: %v", ErrInternal, err)
		}
		if hasConflict {
			uc.logger.Warn("ReconcilePayment: hold payment id=%d arrived after hold_until of booking id=%d, slot already taken",
				payment.ID, booking.ID)
			return uc.applyConflictAfterPayment(txCtx, payment, booking, out)
		}
	}

	err := uc.bookingRepo.SetPaymentStatus(txCtx, booking.ID, domain.PaymentStatusUnpaid, domain.PaymentStatusPartialHold)
	if err != nil && !errors.Is(err, bookingRepo.ErrStatusConflict) {
		return fmt.Errorf("%w: failed to secure hold for booking id=%d: %v", ErrInternal, booking.ID, err)
	}

	out.response = &Response{
		BookingID:     booking.ID,
		PaymentID:     payment.ID,
		BookingStatus: string(booking.Status),
		PaymentState:  string(domain.PaymentStateCompleted),
	}
	return nil
}

// applyConflictAfterPayment обрабатывает редкую гонку: оплата прошла,
// но слот уже занят. Сознательно консервативно: никогда не допускаем
// двойного бронирования, даже ценой ручного возврата денег
func (uc *UseCase) applyConflictAfterPayment(txCtx context.Context, payment *domain.Payment, booking *domain.Booking, out *reconcileOutcome) error {
	finalStatus := booking.Status

	if booking.Status == domain.BookingStatusPending {
		if err := uc.bookingRepo.MarkFailed(txCtx, booking.ID); err != nil {
			return fmt.Errorf("%w: failed to fail booking id=%d: %v", ErrInternal, booking.ID, err)
		}
		finalStatus = domain.BookingStatusFailed
		uc.releaseCar(txCtx, booking.CarID)
	}

	uc.logger.Warn("ReconcilePayment: conflict after payment: booking id=%d, payment id=%d routed to ops queue",
		booking.ID, payment.ID)

	out.response = &Response{
		BookingID:            booking.ID,
		PaymentID:            payment.ID,
		BookingStatus:        string(finalStatus),
		PaymentState:         string(domain.PaymentStateCompleted),
		ConflictAfterPayment: true,
	}
	out.events = []events.BookingEvent{
		uc.newEvent(events.ConflictAfterPayment, payment, booking),
		uc.newEvent(events.BookingFailed, payment, booking),
	}
	return nil
}

// applyFailed применяет неуспешный исход платежа
func (uc *UseCase) applyFailed(txCtx context.Context, payment *domain.Payment, booking *domain.Booking, out *reconcileOutcome) error {
	if err := uc.paymentRepo.Fail(txCtx, payment.ID); err != nil {
		return fmt.Errorf("%w: failed to fail payment id=%d: %v", ErrInternal, payment.ID, err)
	}

	finalStatus := booking.Status

	// Неуспех платежа роняет только pending бронирование;
	// подтвержденное бронирование неуспешный ретрай не трогает
	if booking.Status == domain.BookingStatusPending {
		if err := uc.bookingRepo.MarkFailed(txCtx, booking.ID); err != nil {
			return fmt.Errorf("%w: failed to fail booking id=%d: %v", ErrInternal, booking.ID, err)
		}
		finalStatus = domain.BookingStatusFailed
		uc.releaseCar(txCtx, booking.CarID)
	}

	out.response = &Response{
		BookingID:     booking.ID,
		PaymentID:     payment.ID,
		BookingStatus: string(finalStatus),
		PaymentState:  string(domain.PaymentStateFailed),
	}
	if finalStatus == domain.BookingStatusFailed {
		out.events = []events.BookingEvent{uc.newEvent(events.BookingFailed, payment, booking)}
	}
	return nil
}

// releaseCar возвращает кеш статуса автомобиля в available
// Несработавший CAS не ошибка: автомобиль мог быть занят другим бронированием
func (uc *UseCase) releaseCar(txCtx context.Context, carID int64) {
	err := uc.carRepo.UpdateBookingStatus(txCtx, carID, domain.CarStatusHeld, domain.CarStatusAvailable)
	if err != nil && !errors.Is(err, carRepo.ErrStatusNotUpdated) {
		uc.logger.Error("ReconcilePayment: failed to release car id=%d: %v", carID, err)
	}
}

func (uc *UseCase) newEvent(eventType events.Type, payment *domain.Payment, booking *domain.Booking) events.BookingEvent {
	return events.BookingEvent{
		Type:                  eventType,
		BookingID:             booking.ID,
		CarID:                 booking.CarID,
		UserID:                booking.UserID,
		ProviderTransactionID: payment.ProviderTransactionID,
		Amount:                payment.Amount,
		OccurredAt:            uc.timeProvider.Now(),
	}
}

// mapTxError конвертирует инфраструктурные ошибки transaction manager'а
func (uc *UseCase) mapTxError(err error) error {
	switch {
	case errors.Is(err, txmanager.ErrSerializationFailure),
		errors.Is(err, txmanager.ErrTxTimeout),
		errors.Is(err, simpletxmanager.ErrSerializationFailure),
		errors.Is(err, simpletxmanager.ErrTxTimeout):
		uc.logger.Error("ReconcilePayment: transient store error: %v", err)
		return fmt.Errorf("%w: %v", ErrTransientStore, err)
	default:
		return err
	}
}

package reconcile_payment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	reconcilePayment "github.com/m04kA/SMC-RentalService/internal/usecase/reconcile_payment"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidOutcome     = "некорректный исход платежа, ожидается succeeded или failed"
	msgPaymentNotFound    = "платеж не найден"
	msgStoreBusy          = "сервис временно перегружен, повторите запрос"
)

type Handler struct {
	useCase ReconcilePaymentUseCase
	logger  Logger
}

func NewHandler(useCase ReconcilePaymentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/payments/reconcile
//
// Endpoint вебхука платежного провайдера. Провайдер ретраит всё, что не 2xx,
// поэтому бизнес-исходы (включая конфликт после оплаты и повторную доставку)
// отвечают 200 - ретрай ничего не исправит
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /payments/reconcile - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest())
	if err != nil {
		switch {
		case errors.Is(err, reconcilePayment.ErrInvalidInput):
			h.logger.Warn("POST /payments/reconcile - Invalid input: provider_tx=%s, outcome=%s, error=%v",
				req.ProviderTransactionID, req.Outcome, err)
			handlers.RespondBadRequest(w, msgInvalidOutcome)

		case errors.Is(err, reconcilePayment.ErrPaymentNotFound):
			h.logger.Error("POST /payments/reconcile - Payment not found: provider_tx=%s", req.ProviderTransactionID)
			handlers.RespondNotFound(w, msgPaymentNotFound)

		case errors.Is(err, reconcilePayment.ErrTransientStore):
			h.logger.Error("POST /payments/reconcile - Transient store error: provider_tx=%s, error=%v",
				req.ProviderTransactionID, err)
			handlers.RespondError(w, http.StatusServiceUnavailable, msgStoreBusy)

		default:
			h.logger.Error("POST /payments/reconcile - Failed to reconcile: provider_tx=%s, error=%v",
				req.ProviderTransactionID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	if result.AlreadyProcessed {
		h.logger.Info("POST /payments/reconcile - Duplicate webhook replayed: provider_tx=%s, booking_id=%d",
			req.ProviderTransactionID, result.BookingID)
	} else if result.ConflictAfterPayment {
		h.logger.Warn("POST /payments/reconcile - Conflict after payment: provider_tx=%s, booking_id=%d",
			req.ProviderTransactionID, result.BookingID)
	} else {
		h.logger.Info("POST /payments/reconcile - Payment reconciled: provider_tx=%s, booking_id=%d, booking_status=%s",
			req.ProviderTransactionID, result.BookingID, result.BookingStatus)
	}

	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}

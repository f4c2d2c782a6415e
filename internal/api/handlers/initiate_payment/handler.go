package initiate_payment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	initiatePayment "github.com/m04kA/SMC-RentalService/internal/usecase/initiate_payment"
)

const (
	msgInvalidBookingID    = "некорректный ID бронирования"
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgMissingUserID       = "отсутствует ID пользователя"
	msgBookingNotFound     = "бронирование не найдено"
	msgForbidden           = "доступ запрещен"
	msgBookingNotPayable   = "бронирование нельзя оплатить в текущем статусе"
	msgDuplicateProviderTx = "платежная транзакция с таким идентификатором уже зарегистрирована"
)

type Handler struct {
	useCase InitiatePaymentUseCase
	logger  Logger
}

func NewHandler(useCase InitiatePaymentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/payments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/payments - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings/{id}/payments - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req InitiatePaymentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/payments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(bookingID, userID))
	if err != nil {
		switch {
		case errors.Is(err, initiatePayment.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/payments - Invalid input: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		case errors.Is(err, initiatePayment.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/payments - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, initiatePayment.ErrAccessDenied):
			h.logger.Warn("POST /bookings/{id}/payments - Access denied: booking_id=%d, user_id=%d", bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, initiatePayment.ErrBookingNotPayable):
			h.logger.Warn("POST /bookings/{id}/payments - Booking not payable: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgBookingNotPayable)

		case errors.Is(err, initiatePayment.ErrDuplicateProviderTransaction):
			h.logger.Warn("POST /bookings/{id}/payments - Duplicate provider transaction: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgDuplicateProviderTx)

		default:
			h.logger.Error("POST /bookings/{id}/payments - Failed to initiate payment: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/payments - Payment initiated: payment_id=%d, booking_id=%d, amount=%d",
		result.PaymentID, bookingID, result.Amount)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}

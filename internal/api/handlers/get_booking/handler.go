package get_booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgBookingNotFound  = "бронирование аренды не найдено"
	msgMissingUserID    = "отсутствует ID пользователя"
	msgNotOwner         = "бронирование принадлежит другому пользователю"
)

// Handler обработчик карточки бронирования аренды
type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/bookings/{bookingId}
//
// Отдает владельцу бронирование целиком: окно аренды, статус слота,
// платежный статус и, пока холд не закреплен, дедлайн оплаты holdUntil
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	rawID := mux.Vars(r)["bookingId"]
	bookingID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		h.logger.Warn("GET /bookings/{id} - invalid booking id %q: %v", rawID, err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	// userID кладет middleware Auth; его отсутствие означает, что роут
	// зарегистрирован мимо защищенного саброутера
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /bookings/{id} - missing user id: booking_id=%d", bookingID)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	booking, err := h.service.GetByID(r.Context(), bookingID, userID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("GET /bookings/{id} - booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("GET /bookings/{id} - not the owner: booking_id=%d, user_id=%d", bookingID, userID)
			handlers.RespondForbidden(w, msgNotOwner)

		default:
			h.logger.Error("GET /bookings/{id} - failed: booking_id=%d, user_id=%d, error=%v", bookingID, userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /bookings/{id} - ok: booking_id=%d, car_id=%d, status=%s, payment_status=%s",
		booking.ID, booking.CarID, booking.Status, booking.PaymentStatus)
	handlers.RespondJSON(w, http.StatusOK, booking)
}

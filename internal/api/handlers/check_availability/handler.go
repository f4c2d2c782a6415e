package check_availability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	checkAvailability "github.com/m04kA/SMC-RentalService/internal/usecase/check_availability"
)

const (
	msgInvalidCarID  = "некорректный ID автомобиля"
	msgInvalidDates  = "некорректные параметры from/to, ожидается RFC3339"
	msgInvalidWindow = "некорректное окно аренды: минимум 12 часов, возврат позже получения"
)

type Handler struct {
	useCase CheckAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase CheckAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/cars/{carId}/availability?from=...&to=...
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	carID, err := strconv.ParseInt(vars["carId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /cars/{id}/availability - Invalid car ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidCarID)
		return
	}

	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		h.logger.Warn("GET /cars/{id}/availability - Invalid 'from' param: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDates)
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		h.logger.Warn("GET /cars/{id}/availability - Invalid 'to' param: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDates)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &checkAvailability.Request{
		CarID:  carID,
		Window: domain.NewRentalWindow(from, to),
	})
	if err != nil {
		switch {
		case errors.Is(err, checkAvailability.ErrInvalidWindow):
			h.logger.Warn("GET /cars/{id}/availability - Invalid window: car_id=%d, error=%v", carID, err)
			handlers.RespondBadRequest(w, msgInvalidWindow)

		case errors.Is(err, checkAvailability.ErrInvalidInput):
			h.logger.Warn("GET /cars/{id}/availability - Invalid input: car_id=%d, error=%v", carID, err)
			handlers.RespondBadRequest(w, msgInvalidCarID)

		default:
			h.logger.Error("GET /cars/{id}/availability - Failed to check availability: car_id=%d, error=%v", carID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /cars/{id}/availability - Availability checked: car_id=%d, available=%t", carID, result.Available)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}

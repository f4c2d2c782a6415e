package create_hold

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	createHold "github.com/m04kA/SMC-RentalService/internal/usecase/create_hold"
)

const (
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgInvalidDates        = "некорректный формат дат, ожидается RFC3339"
	msgMissingUserID       = "отсутствует ID пользователя"
	msgInvalidWindow       = "некорректное окно аренды: минимум 12 часов, возврат позже получения"
	msgCarNotFound         = "автомобиль не найден"
	msgCarInMaintenance    = "автомобиль находится на обслуживании"
	msgCarNotAvailable     = "автомобиль недоступен на выбранные даты"
	msgDuplicateProviderTx = "платежная транзакция с таким идентификатором уже зарегистрирована"
	msgStoreBusy           = "сервис временно перегружен, повторите запрос"
)

type Handler struct {
	useCase CreateHoldUseCase
	logger  Logger
}

func NewHandler(useCase CreateHoldUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/hold
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateHoldRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/hold - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Получаем userID из контекста (через middleware Auth)
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings/hold - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	// Конвертируем HTTP запрос в модель use case (с парсингом дат)
	useCaseReq, err := req.ToUseCaseRequest(userID)
	if err != nil {
		h.logger.Warn("POST /bookings/hold - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDates)
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createHold.ErrInvalidWindow):
			h.logger.Warn("POST /bookings/hold - Invalid window: user_id=%d, car_id=%d, error=%v", userID, req.CarID, err)
			handlers.RespondBadRequest(w, msgInvalidWindow)

		case errors.Is(err, createHold.ErrInvalidInput):
			h.logger.Warn("POST /bookings/hold - Invalid input: user_id=%d, car_id=%d, error=%v", userID, req.CarID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		case errors.Is(err, createHold.ErrCarNotFound):
			h.logger.Warn("POST /bookings/hold - Car not found: car_id=%d", req.CarID)
			handlers.RespondNotFound(w, msgCarNotFound)

		case errors.Is(err, createHold.ErrCarInMaintenance):
			h.logger.Warn("POST /bookings/hold - Car in maintenance: car_id=%d", req.CarID)
			handlers.RespondConflict(w, msgCarInMaintenance)

		case errors.Is(err, createHold.ErrCarNotAvailable):
			h.logger.Warn("POST /bookings/hold - Slot conflict: user_id=%d, car_id=%d", userID, req.CarID)
			handlers.RespondConflict(w, msgCarNotAvailable)

		case errors.Is(err, createHold.ErrDuplicateProviderTransaction):
			h.logger.Warn("POST /bookings/hold - Duplicate provider transaction: user_id=%d, car_id=%d", userID, req.CarID)
			handlers.RespondConflict(w, msgDuplicateProviderTx)

		case errors.Is(err, createHold.ErrTransientStore):
			h.logger.Error("POST /bookings/hold - Transient store error: user_id=%d, car_id=%d, error=%v", userID, req.CarID, err)
			handlers.RespondError(w, http.StatusServiceUnavailable, msgStoreBusy)

		default:
			h.logger.Error("POST /bookings/hold - Failed to create hold: user_id=%d, car_id=%d, error=%v", userID, req.CarID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	response := FromUseCaseResponse(result)

	h.logger.Info("POST /bookings/hold - Hold created successfully: booking_id=%d, user_id=%d, car_id=%d",
		result.BookingID, userID, req.CarID)
	handlers.RespondJSON(w, http.StatusCreated, response)
}

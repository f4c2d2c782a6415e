package check_availability

import (
	"time"

	checkAvailability "github.com/m04kA/SMC-RentalService/internal/usecase/check_availability"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	CarID     int64  `json:"carId"`
	PickupAt  string `json:"pickupAt"` // RFC3339
	ReturnAt  string `json:"returnAt"` // RFC3339
	Available bool   `json:"available"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *checkAvailability.Response) *AvailabilityResponse {
	return &AvailabilityResponse{
		CarID:     resp.CarID,
		PickupAt:  resp.Window.StartAt.Format(time.RFC3339),
		ReturnAt:  resp.Window.EndAt.Format(time.RFC3339),
		Available: resp.Available,
	}
}

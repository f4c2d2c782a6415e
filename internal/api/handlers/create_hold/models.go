package create_hold

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	createHold "github.com/m04kA/SMC-RentalService/internal/usecase/create_hold"
)

// CreateHoldRequest HTTP request model
type CreateHoldRequest struct {
	CarID       int64  `json:"carId"`
	PickupAt    string `json:"pickupAt"` // RFC3339
	ReturnAt    string `json:"returnAt"` // RFC3339
	PayMode     string `json:"payMode"`  // full | instant_hold | gateway_hold
	TotalAmount int64  `json:"totalAmount"`

	ProviderTransactionID *string `json:"providerTransactionId,omitempty"`
	Gateway               *string `json:"gateway,omitempty"`
}

// HoldResponse HTTP response model
type HoldResponse struct {
	BookingID   int64   `json:"bookingId"`
	Status      string  `json:"status"`
	HoldAmount  *int64  `json:"holdAmount,omitempty"`
	HoldUntil   *string `json:"holdUntil,omitempty"` // RFC3339
	TotalAmount int64   `json:"totalAmount"`
	CreatedAt   string  `json:"createdAt"` // RFC3339
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateHoldRequest) ToUseCaseRequest(userID int64) (*createHold.Request, error) {
	pickupAt, err := time.Parse(time.RFC3339, r.PickupAt)
	if err != nil {
		return nil, fmt.Errorf("parse pickupAt: %w", err)
	}
	returnAt, err := time.Parse(time.RFC3339, r.ReturnAt)
	if err != nil {
		return nil, fmt.Errorf("parse returnAt: %w", err)
	}

	req := &createHold.Request{
		CarID:       r.CarID,
		UserID:      userID,
		Window:      domain.NewRentalWindow(pickupAt, returnAt),
		PayMode:     domain.PayMode(r.PayMode),
		TotalAmount: r.TotalAmount,
	}
	if r.ProviderTransactionID != nil {
		req.ProviderTransactionID = *r.ProviderTransactionID
	}
	if r.Gateway != nil {
		req.Gateway = *r.Gateway
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createHold.Response) *HoldResponse {
	out := &HoldResponse{
		BookingID:   resp.BookingID,
		Status:      resp.Status,
		HoldAmount:  resp.HoldAmount,
		TotalAmount: resp.TotalAmount,
		CreatedAt:   resp.CreatedAt.Format(time.RFC3339),
	}
	if resp.HoldUntil != nil {
		formatted := resp.HoldUntil.Format(time.RFC3339)
		out.HoldUntil = &formatted
	}
	return out
}

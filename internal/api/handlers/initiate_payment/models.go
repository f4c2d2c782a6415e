package initiate_payment

import (
	initiatePayment "github.com/m04kA/SMC-RentalService/internal/usecase/initiate_payment"
)

// InitiatePaymentRequest HTTP request model
type InitiatePaymentRequest struct {
	Gateway               string  `json:"gateway"`
	ProviderTransactionID *string `json:"providerTransactionId,omitempty"`
}

// PaymentResponse HTTP response model
type PaymentResponse struct {
	PaymentID             int64  `json:"paymentId"`
	BookingID             int64  `json:"bookingId"`
	Amount                int64  `json:"amount"`
	Purpose               string `json:"purpose"`
	ProviderTransactionID string `json:"providerTransactionId"`
	Status                string `json:"status"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *InitiatePaymentRequest) ToUseCaseRequest(bookingID, userID int64) *initiatePayment.Request {
	req := &initiatePayment.Request{
		BookingID: bookingID,
		UserID:    userID,
		Gateway:   r.Gateway,
	}
	if r.ProviderTransactionID != nil {
		req.ProviderTransactionID = *r.ProviderTransactionID
	}
	return req
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *initiatePayment.Response) *PaymentResponse {
	return &PaymentResponse{
		PaymentID:             resp.PaymentID,
		BookingID:             resp.BookingID,
		Amount:                resp.Amount,
		Purpose:               resp.Purpose,
		ProviderTransactionID: resp.ProviderTransactionID,
		Status:                resp.Status,
	}
}

package reconcile_payment

import (
	reconcilePayment "github.com/m04kA/SMC-RentalService/internal/usecase/reconcile_payment"
)

// WebhookRequest HTTP модель вебхука платежного провайдера
type WebhookRequest struct {
	ProviderTransactionID string `json:"providerTransactionId"`
	Outcome               string `json:"outcome"` // succeeded | failed
}

// WebhookResponse HTTP модель ответа провайдеру
type WebhookResponse struct {
	BookingID            int64  `json:"bookingId"`
	PaymentID            int64  `json:"paymentId"`
	BookingStatus        string `json:"bookingStatus"`
	PaymentState         string `json:"paymentState"`
	AlreadyProcessed     bool   `json:"alreadyProcessed"`
	ConflictAfterPayment bool   `json:"conflictAfterPayment"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *WebhookRequest) ToUseCaseRequest() *reconcilePayment.Request {
	return &reconcilePayment.Request{
		ProviderTransactionID: r.ProviderTransactionID,
		Outcome:               reconcilePayment.Outcome(r.Outcome),
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *reconcilePayment.Response) *WebhookResponse {
	return &WebhookResponse{
		BookingID:            resp.BookingID,
		PaymentID:            resp.PaymentID,
		BookingStatus:        resp.BookingStatus,
		PaymentState:         resp.PaymentState,
		AlreadyProcessed:     resp.AlreadyProcessed,
		ConflictAfterPayment: resp.ConflictAfterPayment,
	}
}

package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	UserID             int64  `json:"userId"`
	CancellationReason string `json:"cancellationReason"`
}

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	UserID int64   `json:"userId"`
	Status *string `json:"status,omitempty"`
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID            int64  `json:"id"`
	CarID         int64  `json:"carId"`
	UserID        int64  `json:"userId"`
	PickupAt      string `json:"pickupAt"` // RFC3339
	ReturnAt      string `json:"returnAt"` // RFC3339
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	PayMode       string `json:"payMode"`

	HoldAmount  *int64  `json:"holdAmount,omitempty"`
	HoldUntil   *string `json:"holdUntil,omitempty"` // RFC3339
	TotalAmount int64   `json:"totalAmount"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // RFC3339

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	switch domain.BookingStatus(status) {
	case domain.BookingStatusPending,
		domain.BookingStatusConfirmed,
		domain.BookingStatusFailed,
		domain.BookingStatusCancelled,
		domain.BookingStatusExpired:
		return domain.BookingStatus(status), nil
	default:
		return "", ErrInvalidStatus
	}
}

// FromDomainBooking конвертирует domain.Booking в response
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	resp := &BookingResponse{
		ID:                 b.ID,
		CarID:              b.CarID,
		UserID:             b.UserID,
		PickupAt:           b.Window.StartAt.Format(time.RFC3339),
		ReturnAt:           b.Window.EndAt.Format(time.RFC3339),
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		PayMode:            string(b.PayMode),
		HoldAmount:         b.HoldAmount,
		TotalAmount:        b.TotalAmount,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if b.HoldUntil != nil {
		formatted := b.HoldUntil.Format(time.RFC3339)
		resp.HoldUntil = &formatted
	}
	if b.CancelledAt != nil {
		formatted := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &formatted
	}

	return resp
}

// FromDomainBookingList конвертирует список бронирований в response
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	responses := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		responses = append(responses, *FromDomainBooking(b))
	}
	return &BookingListResponse{
		Bookings: responses,
		Total:    len(responses),
	}
}

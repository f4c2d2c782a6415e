package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("bookings.service: booking not found")

	// ErrAccessDenied возвращается при попытке доступа к чужому бронированию
	ErrAccessDenied = errors.New("bookings.service: access denied")

	// ErrCannotCancel возвращается, когда бронирование нельзя отменить
	// (уже провалено, отменено или истекло)
	ErrCannotCancel = errors.New("bookings.service: booking cannot be cancelled")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("bookings.service: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bookings.service: internal error")
)

package initiate_payment

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("initiate_payment: invalid input data")

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("initiate_payment: booking not found")

	// ErrAccessDenied возвращается при попытке оплатить чужое бронирование
	ErrAccessDenied = errors.New("initiate_payment: access denied")

	// ErrBookingNotPayable возвращается, когда бронирование не в pending
	// (подтверждено, отменено, истекло или провалено)
	ErrBookingNotPayable = errors.New("initiate_payment: booking is not payable")

	// ErrDuplicateProviderTransaction возвращается, когда идентификатор
	// транзакции провайдера уже зарегистрирован
	ErrDuplicateProviderTransaction = errors.New("initiate_payment: provider transaction id already exists")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("initiate_payment: internal error")
)

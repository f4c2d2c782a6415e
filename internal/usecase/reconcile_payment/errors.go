package reconcile_payment

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("reconcile_payment: invalid input data")

	// ErrPaymentNotFound возвращается при вебхуке на неизвестный
	// provider_transaction_id. Признак нарушения целостности данных:
	// логируется для расследования, автоматически не ретраится
	ErrPaymentNotFound = errors.New("reconcile_payment: payment not found")

	// ErrTransientStore возвращается при инфраструктурных сбоях хранилища
	ErrTransientStore = errors.New("reconcile_payment: transient store error")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("reconcile_payment: internal error")
)

package payment

import "errors"

var (
	// ErrPaymentNotFound возвращается, когда платеж не найден
	ErrPaymentNotFound = errors.New("payment.repository: payment not found")

	// ErrDuplicateProviderTransaction возвращается при нарушении
	// уникальности provider_transaction_id — ключа идемпотентности вебхуков
	ErrDuplicateProviderTransaction = errors.New("payment.repository: provider transaction id already exists")

	// ErrAlreadyFinalized возвращается при попытке изменить платеж,
	// который уже completed или failed (платежи терминально неизменяемы)
	ErrAlreadyFinalized = errors.New("payment.repository: payment is already finalized")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("payment.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("payment.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("payment.repository: failed to scan row")
)

package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrStatusConflict возвращается, когда CAS-переход статуса не сработал:
	// строка уже в другом состоянии (конкурирующий воркер успел раньше)
	ErrStatusConflict = errors.New("booking.repository: booking status changed concurrently")

	// ErrOverlapConstraint возвращается при нарушении exclusion constraint
	// на пересечение окон подтвержденных бронирований
	ErrOverlapConstraint = errors.New("booking.repository: overlapping confirmed booking exists")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)

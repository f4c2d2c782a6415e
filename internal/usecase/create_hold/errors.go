package create_hold

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_hold: invalid input data")

	// ErrInvalidWindow возвращается при нарушении правил окна аренды
	// (конец не позже начала или короче минимальной длительности)
	ErrInvalidWindow = errors.New("create_hold: invalid rental window")

	// ErrCarNotFound возвращается, когда автомобиль не найден
	ErrCarNotFound = errors.New("create_hold: car not found")

	// ErrCarInMaintenance возвращается, когда автомобиль на обслуживании
	ErrCarInMaintenance = errors.New("create_hold: car is in maintenance")

	// ErrCarNotAvailable возвращается при пересечении с существующим
	// бронированием. Не ретраится: нужны другие даты или автомобиль
	ErrCarNotAvailable = errors.New("create_hold: car is not available for the requested window")

	// ErrDuplicateProviderTransaction возвращается, когда идентификатор
	// транзакции провайдера уже зарегистрирован
	ErrDuplicateProviderTransaction = errors.New("create_hold: provider transaction id already exists")

	// ErrTransientStore возвращается при инфраструктурных сбоях хранилища
	// после исчерпания повторов. Ретраится с backoff
	ErrTransientStore = errors.New("create_hold: transient store error")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_hold: internal error")
)

package reconcile_payment

// Outcome исход платежа у провайдера
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// IsValid возвращает true для известного исхода
func (o Outcome) IsValid() bool {
	return o == OutcomeSucceeded || o == OutcomeFailed
}

// Request модель запроса на сверку платежа
type Request struct {
	ProviderTransactionID string  // Идентификатор транзакции провайдера
	Outcome               Outcome // Исход платежа
}

// Response результат сверки
type Response struct {
	BookingID     int64  // ID бронирования
	PaymentID     int64  // ID платежа
	BookingStatus string // Итоговый статус бронирования
	PaymentState  string // Итоговый статус платежа

	// AlreadyProcessed платеж уже был терминальным: повторная доставка
	// вебхука, побочные эффекты не применялись
	AlreadyProcessed bool

	// ConflictAfterPayment деньги списаны, но слот занять нельзя —
	// бронирование failed, платеж completed, кейс ушел в операционную
	// очередь ручных возвратов
	ConflictAfterPayment bool
}

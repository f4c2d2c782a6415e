package initiate_payment

// Request модель запроса на инициацию платежа
type Request struct {
	BookingID int64  // ID бронирования
	UserID    int64  // ID пользователя (владелец бронирования)
	Gateway   string // Имя платежного шлюза

	// ProviderTransactionID идентификатор интента провайдера;
	// если пуст, движок генерирует собственный
	ProviderTransactionID string
}

// Response модель ответа с созданным платежом
type Response struct {
	PaymentID             int64  // ID платежа
	BookingID             int64  // ID бронирования
	Amount                int64  // Сумма к оплате (остаток или полная стоимость)
	Purpose               string // Назначение платежа (balance / full)
	ProviderTransactionID string // Ключ идемпотентности для вебхука
	Status                string // Статус платежа (pending)
}

package create_hold

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Request модель запроса на создание холда
type Request struct {
	CarID       int64               // ID автомобиля
	UserID      int64               // ID пользователя
	Window      domain.RentalWindow // Окно аренды [pickup, return)
	PayMode     domain.PayMode      // Стратегия оплаты
	TotalAmount int64               // Полная стоимость в минимальных единицах валюты

	// ProviderTransactionID идентификатор платежного интента провайдера.
	// Обязателен для gateway_hold, игнорируется для остальных режимов
	ProviderTransactionID string
	// Gateway имя платежного шлюза для gateway_hold
	Gateway string
}

// Response модель ответа с созданным холдом
type Response struct {
	BookingID   int64      // ID созданного бронирования
	Status      string     // Статус бронирования
	HoldAmount  *int64     // Сумма холда (nil для полной оплаты)
	HoldUntil   *time.Time // Дедлайн холда (nil для полной оплаты)
	TotalAmount int64      // Полная стоимость
	CreatedAt   time.Time  // Время создания
}

package domain

import "time"

// Business rule constants for rental windows and holds
const (
	// MinRentalHours минимальная длительность аренды
	MinRentalHours = 12

	// BillingIncrementHours шаг тарификации: длительность округляется
	// вверх до кратной 12 часам
	BillingIncrementHours = 12

	// HoldTTL время жизни холда: автомобиль зарезервирован на 24 часа
	HoldTTL = 24 * time.Hour

	// HoldFractionPercent доля предоплаты при бронировании с холдом
	HoldFractionPercent = 10
)

// SlotBlockingStatuses статусы бронирований, занимающих слот автомобиля
// Только эти статусы участвуют в проверке пересечений
var SlotBlockingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
}

// TerminalStatuses терминальные статусы: слот освобожден, строки хранятся для аудита
var TerminalStatuses = []BookingStatus{
	BookingStatusFailed,
	BookingStatusCancelled,
	BookingStatusExpired,
}

// ComputeHoldAmount возвращает сумму холда: 10% от полной стоимости,
// округление до ближайшей минимальной единицы валюты
func ComputeHoldAmount(totalAmount int64) int64 {
	return (totalAmount + 5) / 10
}

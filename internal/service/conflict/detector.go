package conflict

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Detector проверяет пересечение окна аренды с занятыми слотами автомобиля
//
// Побочных эффектов нет. Для решений о записи (создание холда, подтверждение
// оплаты) проверка обязана выполняться внутри той же транзакции, что и
// запись — вызывающий код передает контекст с транзакцией, и выборка
// блокирует строки; отдельные read+write вызовы гоночны (TOCTOU)
type Detector struct {
	bookingRepo  BookingRepository
	timeProvider TimeProvider
}

// NewDetector создает новый детектор конфликтов
func NewDetector(bookingRepo BookingRepository) *Detector {
	return &Detector{
		bookingRepo:  bookingRepo,
		timeProvider: &RealTimeProvider{},
	}
}

// HasConflict возвращает true, если окно пересекается с бронированием,
// занимающим слот: status IN (pending, confirmed), протухшие холды
// (unpaid с истекшим hold_until) не считаются.
// excludeBookingID исключает бронирование из проверки — используется
// при повторной проверке перед подтверждением оплаты
func (d *Detector) HasConflict(
	ctx context.Context,
	carID int64,
	window domain.RentalWindow,
	excludeBookingID *int64,
) (bool, error) {
	now := d.timeProvider.Now()

	bookings, err := d.bookingRepo.ListOverlapping(ctx, carID, window, excludeBookingID, now)
	if err != nil {
		return false, fmt.Errorf("conflict: failed to list overlapping bookings: %w", err)
	}

	// Запрос уже отфильтровал по статусу и окну; повторная проверка
	// доменными предикатами держит полуоткрытую семантику и исключение
	// протухших холдов в одном месте
	for _, b := range bookings {
		if b.IsSlotBlocking(now) && b.Window.Overlaps(window) {
			return true, nil
		}
	}

	return false, nil
}

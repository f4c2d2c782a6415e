package sweeper

import (
	"context"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/events"
)

// Sweeper фоновый процесс истечения просроченных холдов
//
// Просроченный холд: pending бронирование с payment_status=unpaid,
// у которого hold_until уже в прошлом. Свипер переводит такие
// бронирования в expired одним UPDATE и освобождает автомобили,
// по которым не осталось активных бронирований.
//
// Свипер - это подстраховка: просроченные холды и так исключаются из
// проверки конфликтов на чтении, поэтому пропущенный тик не блокирует
// повторное бронирование слота
type Sweeper struct {
	bookingRepo  BookingRepository
	carRepo      CarRepository
	publisher    EventPublisher
	timeProvider TimeProvider
	logger       Logger
	metrics      Metrics

	interval time.Duration
}

// New создает новый свипер
func New(
	bookingRepo BookingRepository,
	carRepo CarRepository,
	publisher EventPublisher,
	timeProvider TimeProvider,
	logger Logger,
	metrics Metrics,
	interval time.Duration,
) *Sweeper {
	return &Sweeper{
		bookingRepo:  bookingRepo,
		carRepo:      carRepo,
		publisher:    publisher,
		timeProvider: timeProvider,
		logger:       logger,
		metrics:      metrics,
		interval:     interval,
	}
}

// Run запускает периодический цикл свипера до отмены контекста
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("Sweeper: started with interval %s", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper: stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("Sweeper: sweep failed: %v", err)
			}
		}
	}
}

// Sweep выполняет один проход: истекает просроченные холды,
// освобождает автомобили и публикует события booking.expired.
// Возвращает количество истекших холдов
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.timeProvider.Now()

	expired, err := s.bookingRepo.ExpireStale(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	s.logger.Info("Sweeper: expired %d stale holds", len(expired))
	s.metrics.AddStaleHoldsExpired(len(expired))

	// Освобождение автомобилей: по одному разу на каждый затронутый автомобиль
	seenCars := make(map[int64]struct{}, len(expired))
	for _, hold := range expired {
		if _, ok := seenCars[hold.CarID]; ok {
			continue
		}
		seenCars[hold.CarID] = struct{}{}
		s.releaseCarIfFree(ctx, hold.CarID, now)
	}

	for _, hold := range expired {
		event := events.BookingEvent{
			Type:       events.BookingExpired,
			BookingID:  hold.BookingID,
			CarID:      hold.CarID,
			UserID:     hold.UserID,
			OccurredAt: now,
		}
		if err := s.publisher.PublishBookingEvent(ctx, event); err != nil {
			// Публикация не влияет на консистентность хранилища
			s.logger.Warn("Sweeper: failed to publish expired event for booking id=%d: %v", hold.BookingID, err)
		}
	}

	return len(expired), nil
}

func (s *Sweeper) releaseCarIfFree(ctx context.Context, carID int64, now time.Time) {
	active, err := s.bookingRepo.CountSlotBlocking(ctx, carID, now)
	if err != nil {
		s.logger.Warn("Sweeper: failed to count active bookings for car id=%d: %v", carID, err)
		return
	}
	if active > 0 {
		return
	}

	if err := s.carRepo.UpdateBookingStatus(ctx, carID, domain.CarStatusHeld, domain.CarStatusAvailable); err != nil {
		// Автомобиль мог быть уже available, booked или maintenance
		s.logger.Info("Sweeper: car id=%d not released: %v", carID, err)
	}
}

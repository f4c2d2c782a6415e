package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	storage "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
)

// Service сервис для чтения и отмены бронирований
type Service struct {
	bookingRepo  BookingRepository
	carRepo      CarRepository
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый сервис бронирований
func NewService(bookingRepo BookingRepository, carRepo CarRepository, timeProvider TimeProvider, logger Logger) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		carRepo:      carRepo,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// GetByID возвращает бронирование по ID
// Доступ разрешен только владельцу бронирования
func (s *Service) GetByID(ctx context.Context, bookingID, userID int64) (*models.BookingResponse, error) {
	if bookingID <= 0 || userID <= 0 {
		return nil, fmt.Errorf("%w: GetByID - bookingID and userID must be positive", ErrInvalidInput)
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, storage.ErrBookingNotFound) {
			return nil, fmt.Errorf("%w: GetByID - booking id=%d", ErrBookingNotFound, bookingID)
		}
		s.logger.Error("BookingsService.GetByID: failed to get booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: GetByID - get booking: %v", ErrInternal, err)
	}

	if booking.UserID != userID {
		s.logger.Warn("BookingsService.GetByID: user id=%d tried to access booking id=%d owned by user id=%d", userID, bookingID, booking.UserID)
		return nil, fmt.Errorf("%w: GetByID - booking id=%d", ErrAccessDenied, bookingID)
	}

	return models.FromDomainBooking(booking), nil
}

// GetUserBookings возвращает бронирования пользователя с опциональной фильтрацией по статусу
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	if req.UserID <= 0 {
		return nil, fmt.Errorf("%w: GetUserBookings - userID must be positive", ErrInvalidInput)
	}

	var statusFilter *domain.BookingStatus
	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: GetUserBookings - unknown status %q", ErrInvalidInput, *req.Status)
		}
		statusFilter = &status
	}

	bookings, err := s.bookingRepo.GetByUserID(ctx, req.UserID, statusFilter)
	if err != nil {
		s.logger.Error("BookingsService.GetUserBookings: failed to list bookings for user id=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - list bookings: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(bookings), nil
}

// Cancel отменяет бронирование
//
// Разрешена отмена pending и confirmed бронирований владельцем.
// Если после отмены у автомобиля не осталось активных бронирований,
// его статус возвращается в available
func (s *Service) Cancel(ctx context.Context, bookingID int64, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	// 1. Валидация входных данных
	if bookingID <= 0 || req.UserID <= 0 {
		return nil, fmt.Errorf("%w: Cancel - bookingID and userID must be positive", ErrInvalidInput)
	}

	// 2. Получение бронирования и проверка владельца
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, storage.ErrBookingNotFound) {
			return nil, fmt.Errorf("%w: Cancel - booking id=%d", ErrBookingNotFound, bookingID)
		}
		s.logger.Error("BookingsService.Cancel: failed to get booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: Cancel - get booking: %v", ErrInternal, err)
	}

	if booking.UserID != req.UserID {
		s.logger.Warn("BookingsService.Cancel: user id=%d tried to cancel booking id=%d owned by user id=%d", req.UserID, bookingID, booking.UserID)
		return nil, fmt.Errorf("%w: Cancel - booking id=%d", ErrAccessDenied, bookingID)
	}

	// 3. Проверка допустимости отмены
	if !booking.CanBeCancelled() {
		return nil, fmt.Errorf("%w: Cancel - booking id=%d in status %s", ErrCannotCancel, bookingID, booking.Status)
	}

	// 4. Отмена бронирования (CAS на статусе внутри репозитория)
	if err := s.bookingRepo.Cancel(ctx, bookingID, req.CancellationReason); err != nil {
		if errors.Is(err, storage.ErrStatusConflict) {
			// Статус изменился между чтением и отменой
			return nil, fmt.Errorf("%w: Cancel - booking id=%d already finalized", ErrCannotCancel, bookingID)
		}
		s.logger.Error("BookingsService.Cancel: failed to cancel booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: Cancel - cancel booking: %v", ErrInternal, err)
	}

	// 5. Освобождение автомобиля, если активных бронирований больше нет
	s.releaseCarIfFree(ctx, booking.CarID)

	// 6. Повторное чтение для актуальных полей отмены
	cancelled, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		s.logger.Error("BookingsService.Cancel: failed to re-read booking id=%d after cancel: %v", bookingID, err)
		return nil, fmt.Errorf("%w: Cancel - re-read booking: %v", ErrInternal, err)
	}

	s.logger.Info("BookingsService.Cancel: booking id=%d cancelled by user id=%d", bookingID, req.UserID)

	return models.FromDomainBooking(cancelled), nil
}

// releaseCarIfFree возвращает автомобиль в available, если по нему не осталось
// блокирующих слот бронирований. Ошибки не фатальны: статус автомобиля является
// денормализацией, источник истины - таблица бронирований
func (s *Service) releaseCarIfFree(ctx context.Context, carID int64) {
	active, err := s.bookingRepo.CountSlotBlocking(ctx, carID, s.timeProvider.Now())
	if err != nil {
		s.logger.Warn("BookingsService.releaseCarIfFree: failed to count active bookings for car id=%d: %v", carID, err)
		return
	}
	if active > 0 {
		return
	}

	if err := s.carRepo.UpdateBookingStatus(ctx, carID, domain.CarStatusHeld, domain.CarStatusAvailable); err != nil {
		// Автомобиль мог быть в booked или maintenance - это не ошибка
		s.logger.Info("BookingsService.releaseCarIfFree: car id=%d not released from held: %v", carID, err)
	}
	if err := s.carRepo.UpdateBookingStatus(ctx, carID, domain.CarStatusBooked, domain.CarStatusAvailable); err != nil {
		s.logger.Info("BookingsService.releaseCarIfFree: car id=%d not released from booked: %v", carID, err)
	}
}

package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	storage "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
)

type mockBookingRepository struct {
	mock.Mock
}

func (m *mockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingRepository) GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

func (m *mockBookingRepository) Cancel(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *mockBookingRepository) CountSlotBlocking(ctx context.Context, carID int64, now time.Time) (int, error) {
	args := m.Called(ctx, carID, now)
	return args.Int(0), args.Error(1)
}

type mockCarRepository struct {
	mock.Mock
}

func (m *mockCarRepository) UpdateBookingStatus(ctx context.Context, id int64, from, to domain.CarBookingStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

type fixedTimeProvider struct {
	now time.Time
}

func (p *fixedTimeProvider) Now() time.Time {
	return p.now
}

type noopLogger struct{}

func (noopLogger) Info(format string, v ...interface{})  {}
func (noopLogger) Warn(format string, v ...interface{})  {}
func (noopLogger) Error(format string, v ...interface{}) {}

func testBooking(status domain.BookingStatus) *domain.Booking {
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Booking{
		ID:            42,
		CarID:         7,
		UserID:        3,
		Window:        domain.NewRentalWindow(start, start.Add(24*time.Hour)),
		Status:        status,
		PaymentStatus: domain.PaymentStatusUnpaid,
		PayMode:       domain.PayModeFull,
		TotalAmount:   10000,
	}
}

func newTestService(bookingRepo *mockBookingRepository, carRepo *mockCarRepository, now time.Time) *Service {
	return NewService(bookingRepo, carRepo, &fixedTimeProvider{now: now}, noopLogger{})
}

func TestService_GetByID_OwnerOnly(t *testing.T) {
	now := time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC)
	bookingRepo := &mockBookingRepository{}
	carRepo := &mockCarRepository{}
	svc := newTestService(bookingRepo, carRepo, now)

	bookingRepo.On("GetByID", mock.Anything, int64(42)).Return(testBooking(domain.BookingStatusPending), nil)

	t.Run("owner can read", func(t *testing.T) {
		resp, err := svc.GetByID(context.Background(), 42, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(42), resp.ID)
		assert.Equal(t, "pending", resp.Status)
	})

	t.Run("other user is denied", func(t *testing.T) {
		_, err := svc.GetByID(context.Background(), 42, 99)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestService_GetByID_NotFound(t *testing.T) {
	now := time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC)
	bookingRepo := &mockBookingRepository{}
	svc := newTestService(bookingRepo, &mockCarRepository{}, now)

	bookingRepo.On("GetByID", mock.Anything, int64(404)).Return(nil, storage.ErrBookingNotFound)

	_, err := svc.GetByID(context.Background(), 404, 3)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestService_GetUserBookings_StatusFilter(t *testing.T) {
	now := time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC)
	bookingRepo := &mockBookingRepository{}
	svc := newTestService(bookingRepo, &mockCarRepository{}, now)

	confirmed := domain.BookingStatusConfirmed
	bookingRepo.On("GetByUserID", mock.Anything, int64(3), &confirmed).
		Return([]*domain.Booking{testBooking(domain.BookingStatusConfirmed)}, nil)

	statusStr := "confirmed"
	resp, err := svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		UserID: 3,
		Status: &statusStr,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "confirmed", resp.Bookings[0].Status)
}

func TestService_GetUserBookings_UnknownStatus(t *testing.T) {
	now := time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC)
	svc := newTestService(&mockBookingRepository{}, &mockCarRepository{}, now)

	statusStr := "teleported"
	_, err := svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		UserID: 3,
		Status: &statusStr,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Cancel_ReleasesCarWhenFree(t *testing.T) {
	now := time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC)
	bookingRepo := &mockBookingRepository{}
	carRepo := &mockCarRepository{}
	svc := newTestService(bookingRepo, carRepo, now)

	pending := testBooking(domain.BookingStatusPending)
	cancelled := testBooking(domain.BookingStatusCancelled)
	reason := "планы изменились"
	cancelled.CancellationReason = &reason

	bookingRepo.On("GetByID", mock.Anything, int64(42)).Return(pending, nil).Once()
	bookingRepo.On("Cancel", mock.Anything, int64(42), reason).Return(nil)
	bookingRepo.On("CountSlotBlocking", mock.Anything, int64(7), now).Return(0, nil)
	carRepo.On("UpdateBookingStatus", mock.Anything, int64(7), domain.CarStatusHeld, domain.CarStatusAvailable).
		Return(nil)
	carRepo.On("UpdateBookingStatus", mock.Anything, int64(7), domain.CarStatusBooked, domain.CarStatusAvailable).
		Return(nil)
	bookingRepo.On("GetByID", mock.Anything, int64(42)).Return(cancelled, nil).Once()

	resp, err := svc.Cancel(context.Background(), 42, &models.CancelBookingRequest{
		UserID:             3,
		CancellationReason: reason,
	})
	require.NoError(t, err)

	assert.Equal(t, "cancelled", resp.Status)
	require.NotNil(t, resp.CancellationReason)
	assert.Equal(t, reason, *resp.CancellationReason)

	bookingRepo.AssertExpectations(t)
	carRepo.AssertExpectations(t)
}

func TestService_Cancel_KeepsCarWhenStillBooked(t *testing.T) {
	// У автомобиля осталось другое активное бронирование — статус не трогаем
	now := time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC)
	bookingRepo := &mockBookingRepository{}
	carRepo := &mockCarRepository{}
	svc := newTestService(bookingRepo, carRepo, now)

	pending := testBooking(domain.BookingStatusPending)
	cancelled := testBooking(domain.BookingStatusCancelled)

	bookingRepo.On("GetByID", mock.Anything, int64(42)).Return(pending, nil).Once()
	bookingRepo.On("Cancel", mock.Anything, int64(42), "").Return(nil)
	bookingRepo.On("CountSlotBlocking", mock.Anything, int64(7), now).Return(1, nil)
	bookingRepo.On("GetByID", mock.Anything, int64(42)).Return(cancelled, nil).Once()

	_, err := svc.Cancel(context.Background(), 42, &models.CancelBookingRequest{UserID: 3})
	require.NoError(t, err)

	carRepo.AssertNotCalled(t, "UpdateBookingStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Cancel_Errors(t *testing.T) {
	now := time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC)

	t.Run("not the owner", func(t *testing.T) {
		bookingRepo := &mockBookingRepository{}
		svc := newTestService(bookingRepo, &mockCarRepository{}, now)
		bookingRepo.On("GetByID", mock.Anything, int64(42)).Return(testBooking(domain.BookingStatusPending), nil)

		_, err := svc.Cancel(context.Background(), 42, &models.CancelBookingRequest{UserID: 99})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("terminal booking cannot be cancelled", func(t *testing.T) {
		for _, status := range []domain.BookingStatus{
			domain.BookingStatusFailed,
			domain.BookingStatusCancelled,
			domain.BookingStatusExpired,
		} {
			bookingRepo := &mockBookingRepository{}
			svc := newTestService(bookingRepo, &mockCarRepository{}, now)
			bookingRepo.On("GetByID", mock.Anything, int64(42)).Return(testBooking(status), nil)

			_, err := svc.Cancel(context.Background(), 42, &models.CancelBookingRequest{UserID: 3})
			assert.ErrorIs(t, err, ErrCannotCancel, "status=%s", status)
		}
	})

	t.Run("status raced to terminal between read and cancel", func(t *testing.T) {
		bookingRepo := &mockBookingRepository{}
		svc := newTestService(bookingRepo, &mockCarRepository{}, now)
		bookingRepo.On("GetByID", mock.Anything, int64(42)).Return(testBooking(domain.BookingStatusPending), nil)
		bookingRepo.On("Cancel", mock.Anything, int64(42), "").Return(storage.ErrStatusConflict)

		_, err := svc.Cancel(context.Background(), 42, &models.CancelBookingRequest{UserID: 3})
		assert.ErrorIs(t, err, ErrCannotCancel)
	})
}

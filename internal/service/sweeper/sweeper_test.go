package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/events"
	storage "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
)

type mockBookingRepository struct {
	mock.Mock
}

func (m *mockBookingRepository) ExpireStale(ctx context.Context, now time.Time) ([]storage.ExpiredHold, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ExpiredHold), args.Error(1)
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

type recordingPublisher struct {
	published []events.BookingEvent
}

func (p *recordingPublisher) PublishBookingEvent(ctx context.Context, event events.BookingEvent) error {
	p.published = append(p.published, event)
	return nil
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

type recordingMetrics struct {
	expired int
}

func (m *recordingMetrics) AddStaleHoldsExpired(n int) {
	m.expired += n
}

func newTestSweeper(now time.Time) (*Sweeper, *mockBookingRepository, *mockCarRepository, *recordingPublisher, *recordingMetrics) {
	bookingRepo := &mockBookingRepository{}
	carRepo := &mockCarRepository{}
	publisher := &recordingPublisher{}
	m := &recordingMetrics{}

	s := New(
		bookingRepo,
		carRepo,
		publisher,
		&fixedTimeProvider{now: now},
		noopLogger{},
		m,
		time.Minute,
	)
	return s, bookingRepo, carRepo, publisher, m
}

func TestSweeper_Sweep_ExpiresStaleHolds(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s, bookingRepo, carRepo, publisher, m := newTestSweeper(now)

	expired := []storage.ExpiredHold{
		{BookingID: 1, CarID: 7, UserID: 3},
		{BookingID: 2, CarID: 8, UserID: 4},
	}

	bookingRepo.On("ExpireStale", mock.Anything, now).Return(expired, nil)

	// Автомобиль 7 свободен — освобождается; у автомобиля 8 осталось
	// другое активное бронирование
	bookingRepo.On("CountSlotBlocking", mock.Anything, int64(7), now).Return(0, nil)
	bookingRepo.On("CountSlotBlocking", mock.Anything, int64(8), now).Return(1, nil)
	carRepo.On("UpdateBookingStatus", mock.Anything, int64(7), domain.CarStatusHeld, domain.CarStatusAvailable).
		Return(nil)

	count, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, m.expired)

	require.Len(t, publisher.published, 2)
	for i, event := range publisher.published {
		assert.Equal(t, events.BookingExpired, event.Type)
		assert.Equal(t, expired[i].BookingID, event.BookingID)
		assert.Equal(t, expired[i].CarID, event.CarID)
		assert.Equal(t, expired[i].UserID, event.UserID)
	}

	// Автомобиль 8 не освобождался
	carRepo.AssertNotCalled(t, "UpdateBookingStatus", mock.Anything, int64(8), mock.Anything, mock.Anything)
	carRepo.AssertExpectations(t)
}

func TestSweeper_Sweep_NothingToExpire(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s, bookingRepo, carRepo, publisher, m := newTestSweeper(now)

	bookingRepo.On("ExpireStale", mock.Anything, now).Return([]storage.ExpiredHold{}, nil)

	count, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, m.expired)
	assert.Empty(t, publisher.published)
	carRepo.AssertNotCalled(t, "UpdateBookingStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSweeper_Sweep_CarReleasedOncePerCar(t *testing.T) {
	// Два истекших холда одного автомобиля - одна попытка освобождения
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s, bookingRepo, carRepo, publisher, _ := newTestSweeper(now)

	expired := []storage.ExpiredHold{
		{BookingID: 1, CarID: 7, UserID: 3},
		{BookingID: 2, CarID: 7, UserID: 4},
	}

	bookingRepo.On("ExpireStale", mock.Anything, now).Return(expired, nil)
	bookingRepo.On("CountSlotBlocking", mock.Anything, int64(7), now).Return(0, nil).Once()
	carRepo.On("UpdateBookingStatus", mock.Anything, int64(7), domain.CarStatusHeld, domain.CarStatusAvailable).
		Return(nil).Once()

	count, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, publisher.published, 2)

	bookingRepo.AssertExpectations(t)
	carRepo.AssertExpectations(t)
}

func TestSweeper_Sweep_StoreError(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s, bookingRepo, _, publisher, m := newTestSweeper(now)

	bookingRepo.On("ExpireStale", mock.Anything, now).Return(nil, errors.New("connection reset"))

	_, err := s.Sweep(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, m.expired)
	assert.Empty(t, publisher.published)
}

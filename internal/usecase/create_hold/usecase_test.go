package create_hold

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	carStorage "github.com/m04kA/SMC-RentalService/internal/infra/storage/car"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
)

type mockBookingRepository struct {
	mock.Mock
}

func (m *mockBookingRepository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type mockCarRepository struct {
	mock.Mock
}

func (m *mockCarRepository) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Car), args.Error(1)
}

func (m *mockCarRepository) UpdateBookingStatus(ctx context.Context, id int64, from, to domain.CarBookingStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

type mockPaymentRepository struct {
	mock.Mock
}

func (m *mockPaymentRepository) Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

type mockDetector struct {
	mock.Mock
}

func (m *mockDetector) HasConflict(ctx context.Context, carID int64, window domain.RentalWindow, excludeBookingID *int64) (bool, error) {
	args := m.Called(ctx, carID, window, excludeBookingID)
	return args.Bool(0), args.Error(1)
}

// fakeTxManager выполняет функцию без транзакции
type fakeTxManager struct{}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
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

type ucMocks struct {
	bookingRepo *mockBookingRepository
	carRepo     *mockCarRepository
	paymentRepo *mockPaymentRepository
	detector    *mockDetector
}

func newTestUseCase(now time.Time) (*UseCase, *ucMocks) {
	m := &ucMocks{
		bookingRepo: &mockBookingRepository{},
		carRepo:     &mockCarRepository{},
		paymentRepo: &mockPaymentRepository{},
		detector:    &mockDetector{},
	}
	uc := &UseCase{
		bookingRepo:  m.bookingRepo,
		carRepo:      m.carRepo,
		paymentRepo:  m.paymentRepo,
		detector:     m.detector,
		txManager:    fakeTxManager{},
		timeProvider: &fixedTimeProvider{now: now},
		logger:       noopLogger{},
		metrics:      metrics.Noop{},
	}
	return uc, m
}

func holdTestWindow(t *testing.T) domain.RentalWindow {
	t.Helper()
	start, err := time.Parse(time.RFC3339, "2026-06-01T10:00:00Z")
	require.NoError(t, err)
	return domain.NewRentalWindow(start, start.Add(24*time.Hour))
}

func availableCar(id int64) *domain.Car {
	return &domain.Car{ID: id, PricePerDay: 5000, BookingStatus: domain.CarStatusAvailable}
}

func TestCreateHold_InstantHold_Success(t *testing.T) {
	now := time.Date(2026, 5, 30, 12, 0, 0, 0, time.UTC)
	uc, m := newTestUseCase(now)
	window := holdTestWindow(t)

	req := &Request{
		CarID:       7,
		UserID:      3,
		Window:      window,
		PayMode:     domain.PayModeInstantHold,
		TotalAmount: 10000,
	}

	m.carRepo.On("GetByID", mock.Anything, int64(7)).Return(availableCar(7), nil)
	m.detector.On("HasConflict", mock.Anything, int64(7), window, (*int64)(nil)).Return(false, nil)

	m.bookingRepo.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.CarID == 7 &&
			b.UserID == 3 &&
			b.Status == domain.BookingStatusPending &&
			b.PaymentStatus == domain.PaymentStatusPartialHold &&
			b.HoldAmount != nil && *b.HoldAmount == 1000 &&
			b.HoldUntil != nil && b.HoldUntil.Equal(now.Add(domain.HoldTTL))
	})).Return(&domain.Booking{
		ID:            42,
		CarID:         7,
		UserID:        3,
		Window:        window,
		Status:        domain.BookingStatusPending,
		PaymentStatus: domain.PaymentStatusPartialHold,
		PayMode:       domain.PayModeInstantHold,
		HoldAmount:    int64Ptr(1000),
		HoldUntil:     timePtr(now.Add(domain.HoldTTL)),
		TotalAmount:   10000,
		CreatedAt:     now,
	}, nil)

	m.paymentRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.BookingID == 42 &&
			p.Amount == 1000 &&
			p.Purpose == domain.PaymentPurposeHold &&
			p.Status == domain.PaymentStateCompleted &&
			p.Gateway == domain.GatewayInternal &&
			p.ProviderTransactionID != ""
	})).Return(&domain.Payment{ID: 1}, nil)

	m.carRepo.On("UpdateBookingStatus", mock.Anything, int64(7), domain.CarStatusAvailable, domain.CarStatusHeld).
		Return(nil)

	resp, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(42), resp.BookingID)
	assert.Equal(t, string(domain.BookingStatusPending), resp.Status)
	require.NotNil(t, resp.HoldAmount)
	assert.Equal(t, int64(1000), *resp.HoldAmount)
	require.NotNil(t, resp.HoldUntil)
	assert.True(t, resp.HoldUntil.Equal(now.Add(24*time.Hour)))

	m.bookingRepo.AssertExpectations(t)
	m.paymentRepo.AssertExpectations(t)
	m.carRepo.AssertExpectations(t)
}

func TestCreateHold_FullPayMode_NoHoldFields(t *testing.T) {
	now := time.Date(2026, 5, 30, 12, 0, 0, 0, time.UTC)
	uc, m := newTestUseCase(now)
	window := holdTestWindow(t)

	req := &Request{
		CarID:       7,
		UserID:      3,
		Window:      window,
		PayMode:     domain.PayModeFull,
		TotalAmount: 10000,
	}

	m.carRepo.On("GetByID", mock.Anything, int64(7)).Return(availableCar(7), nil)
	m.detector.On("HasConflict", mock.Anything, int64(7), window, (*int64)(nil)).Return(false, nil)

	m.bookingRepo.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.PaymentStatus == domain.PaymentStatusUnpaid &&
			b.HoldAmount == nil &&
			b.HoldUntil == nil
	})).Return(&domain.Booking{
		ID:            43,
		Status:        domain.BookingStatusPending,
		PaymentStatus: domain.PaymentStatusUnpaid,
		PayMode:       domain.PayModeFull,
		TotalAmount:   10000,
	}, nil)

	m.carRepo.On("UpdateBookingStatus", mock.Anything, int64(7), domain.CarStatusAvailable, domain.CarStatusHeld).
		Return(nil)

	resp, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Nil(t, resp.HoldAmount)
	assert.Nil(t, resp.HoldUntil)
	// Платеж полной оплаты создается отдельным шагом инициации
	m.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateHold_Conflict(t *testing.T) {
	now := time.Date(2026, 5, 30, 12, 0, 0, 0, time.UTC)
	uc, m := newTestUseCase(now)
	window := holdTestWindow(t)

	req := &Request{
		CarID:       7,
		UserID:      3,
		Window:      window,
		PayMode:     domain.PayModeInstantHold,
		TotalAmount: 10000,
	}

	m.carRepo.On("GetByID", mock.Anything, int64(7)).Return(availableCar(7), nil)
	m.detector.On("HasConflict", mock.Anything, int64(7), window, (*int64)(nil)).Return(true, nil)

	_, err := uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrCarNotAvailable)
	m.bookingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateHold_CarInMaintenance(t *testing.T) {
	now := time.Date(2026, 5, 30, 12, 0, 0, 0, time.UTC)
	uc, m := newTestUseCase(now)

	req := &Request{
		CarID:       7,
		UserID:      3,
		Window:      holdTestWindow(t),
		PayMode:     domain.PayModeFull,
		TotalAmount: 10000,
	}

	m.carRepo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Car{
		ID:            7,
		BookingStatus: domain.CarStatusMaintenance,
	}, nil)

	_, err := uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrCarInMaintenance)
}

func TestCreateHold_CarNotFound(t *testing.T) {
	now := time.Date(2026, 5, 30, 12, 0, 0, 0, time.UTC)
	uc, m := newTestUseCase(now)

	req := &Request{
		CarID:       404,
		UserID:      3,
		Window:      holdTestWindow(t),
		PayMode:     domain.PayModeFull,
		TotalAmount: 10000,
	}

	m.carRepo.On("GetByID", mock.Anything, int64(404)).Return(nil, carStorage.ErrCarNotFound)

	_, err := uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrCarNotFound)
}

func TestCreateHold_Validation(t *testing.T) {
	now := time.Date(2026, 5, 30, 12, 0, 0, 0, time.UTC)
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		req     *Request
		wantErr error
	}{
		{
			name: "window below 12-hour minimum",
			req: &Request{
				CarID:       7,
				UserID:      3,
				Window:      domain.NewRentalWindow(start, start.Add(11*time.Hour)),
				PayMode:     domain.PayModeFull,
				TotalAmount: 10000,
			},
			wantErr: ErrInvalidWindow,
		},
		{
			name: "gateway_hold requires provider transaction id",
			req: &Request{
				CarID:       7,
				UserID:      3,
				Window:      domain.NewRentalWindow(start, start.Add(24*time.Hour)),
				PayMode:     domain.PayModeGatewayHold,
				TotalAmount: 10000,
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "gateway_hold requires gateway name",
			req: &Request{
				CarID:                 7,
				UserID:                3,
				Window:                domain.NewRentalWindow(start, start.Add(24*time.Hour)),
				PayMode:               domain.PayModeGatewayHold,
				TotalAmount:           10000,
				ProviderTransactionID: "pi_abc123",
			},
			wantErr: ErrInvalidInput,
		},
		{
			// Холд от такой суммы округляется до нуля, а нулевой платеж
			// невозможен - отклоняем на валидации, не на вставке
			name: "total too small for a hold",
			req: &Request{
				CarID:       7,
				UserID:      3,
				Window:      domain.NewRentalWindow(start, start.Add(24*time.Hour)),
				PayMode:     domain.PayModeInstantHold,
				TotalAmount: 4,
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "unknown pay mode",
			req: &Request{
				CarID:       7,
				UserID:      3,
				Window:      domain.NewRentalWindow(start, start.Add(24*time.Hour)),
				PayMode:     domain.PayMode("subscription"),
				TotalAmount: 10000,
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "non-positive total amount",
			req: &Request{
				CarID:       7,
				UserID:      3,
				Window:      domain.NewRentalWindow(start, start.Add(24*time.Hour)),
				PayMode:     domain.PayModeFull,
				TotalAmount: 0,
			},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _ := newTestUseCase(now)
			_, err := uc.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateHold_GatewayHold_PendingPayment(t *testing.T) {
	now := time.Date(2026, 5, 30, 12, 0, 0, 0, time.UTC)
	uc, m := newTestUseCase(now)
	window := holdTestWindow(t)

	req := &Request{
		CarID:                 7,
		UserID:                3,
		Window:                window,
		PayMode:               domain.PayModeGatewayHold,
		TotalAmount:           10000,
		ProviderTransactionID: "pi_abc123",
		Gateway:               "stripe",
	}

	m.carRepo.On("GetByID", mock.Anything, int64(7)).Return(availableCar(7), nil)
	m.detector.On("HasConflict", mock.Anything, int64(7), window, (*int64)(nil)).Return(false, nil)

	// gateway_hold остается unpaid до вебхука
	m.bookingRepo.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.PaymentStatus == domain.PaymentStatusUnpaid &&
			b.HoldAmount != nil && *b.HoldAmount == 1000
	})).Return(&domain.Booking{
		ID:            44,
		Status:        domain.BookingStatusPending,
		PaymentStatus: domain.PaymentStatusUnpaid,
		PayMode:       domain.PayModeGatewayHold,
		HoldAmount:    int64Ptr(1000),
		HoldUntil:     timePtr(now.Add(domain.HoldTTL)),
		TotalAmount:   10000,
	}, nil)

	m.paymentRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.Status == domain.PaymentStatePending &&
			p.ProviderTransactionID == "pi_abc123" &&
			p.Gateway == "stripe"
	})).Return(&domain.Payment{ID: 2}, nil)

	m.carRepo.On("UpdateBookingStatus", mock.Anything, int64(7), domain.CarStatusAvailable, domain.CarStatusHeld).
		Return(nil)

	_, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	m.paymentRepo.AssertExpectations(t)
}

func int64Ptr(v int64) *int64 {
	return &v
}

func timePtr(v time.Time) *time.Time {
	return &v
}

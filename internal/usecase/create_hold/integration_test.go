//go:build integration

package create_hold

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/events"
	bookingStorage "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	carStorageRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/car"
	paymentStorage "github.com/m04kA/SMC-RentalService/internal/infra/storage/payment"
	"github.com/m04kA/SMC-RentalService/internal/service/conflict"
	initiatePayment "github.com/m04kA/SMC-RentalService/internal/usecase/initiate_payment"
	reconcilePayment "github.com/m04kA/SMC-RentalService/internal/usecase/reconcile_payment"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
	"github.com/m04kA/SMC-RentalService/pkg/simpletxmanager"
)

// Тесты против настоящего Postgres: гарантия "ровно один успех" живет
// в сериализуемой транзакции, FOR UPDATE и exclusion constraint, и
// моками не проверяется.
//
// Требуют базу с примененными миграциями, DSN в TEST_DATABASE_DSN:
//
//	go test -tags integration ./internal/usecase/create_hold/...

const testDSNEnv = "TEST_DATABASE_DSN"

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set, skipping", testDSNEnv)
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("TRUNCATE payments, bookings, cars RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	return db
}

func insertTestCar(t *testing.T, db *sql.DB) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(
		"INSERT INTO cars (price_per_day, booking_status) VALUES ($1, 'available') RETURNING id",
		int64(5000),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// engineFixture собирает движок поверх настоящих репозиториев,
// как это делает cmd/main.go, но без HTTP слоя
type engineFixture struct {
	createHold *UseCase
	initiate   *initiatePayment.UseCase
	reconcile  *reconcilePayment.UseCase
}

func newEngineFixture(db *sql.DB) *engineFixture {
	bookings := bookingStorage.NewRepository(db)
	cars := carStorageRepo.NewRepository(db)
	payments := paymentStorage.NewRepository(db)
	detector := conflict.NewDetector(bookings)
	txMgr := simpletxmanager.NewTransactionManager(db)
	log := noopLogger{}

	return &engineFixture{
		createHold: NewUseCase(bookings, cars, payments, detector, txMgr, log, metrics.Noop{}),
		initiate:   initiatePayment.NewUseCase(bookings, payments, log),
		reconcile: reconcilePayment.NewUseCase(
			payments, bookings, cars, detector, txMgr, events.NoopPublisher{}, log, metrics.Noop{},
		),
	}
}

func flowWindow() domain.RentalWindow {
	start := time.Date(2027, 3, 1, 10, 0, 0, 0, time.UTC)
	return domain.NewRentalWindow(start, start.Add(24*time.Hour))
}

func TestCreateHold_ConcurrentOverlappingRequests_OneWinner(t *testing.T) {
	db := openTestDB(t)
	fx := newEngineFixture(db)
	carID := insertTestCar(t, db)
	window := flowWindow()

	startGate := make(chan struct{})
	results := make(chan error, 2)

	for i := 0; i < 2; i++ {
		userID := int64(i + 1)
		go func() {
			<-startGate
			_, err := fx.createHold.Execute(context.Background(), &Request{
				CarID:       carID,
				UserID:      userID,
				Window:      window,
				PayMode:     domain.PayModeInstantHold,
				TotalAmount: 10000,
			})
			results <- err
		}()
	}
	close(startGate)

	var succeeded, rejected int
	for i := 0; i < 2; i++ {
		err := <-results
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrCarNotAvailable):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one of two overlapping holds must win")
	assert.Equal(t, 1, rejected, "the loser must see ErrCarNotAvailable")

	// В хранилище ровно одно блокирующее слот бронирование
	var blocking int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM bookings WHERE car_id = $1 AND status IN ('pending', 'confirmed')",
		carID,
	).Scan(&blocking)
	require.NoError(t, err)
	assert.Equal(t, 1, blocking)
}

func TestBookingFlow_HoldPayConfirm_SlotStaysExclusive(t *testing.T) {
	db := openTestDB(t)
	fx := newEngineFixture(db)
	carID := insertTestCar(t, db)
	window := flowWindow()
	ctx := context.Background()

	// Первый клиент создает холд с мгновенной предоплатой
	hold, err := fx.createHold.Execute(ctx, &Request{
		CarID:       carID,
		UserID:      1,
		Window:      window,
		PayMode:     domain.PayModeInstantHold,
		TotalAmount: 10000,
	})
	require.NoError(t, err)
	require.NotNil(t, hold.HoldAmount)
	assert.Equal(t, int64(1000), *hold.HoldAmount)

	// Пока холд жив, пересекающееся окно недоступно второму клиенту
	overlapping := domain.NewRentalWindow(
		window.StartAt.Add(12*time.Hour),
		window.StartAt.Add(36*time.Hour),
	)
	_, err = fx.createHold.Execute(ctx, &Request{
		CarID:       carID,
		UserID:      2,
		Window:      overlapping,
		PayMode:     domain.PayModeFull,
		TotalAmount: 10000,
	})
	assert.ErrorIs(t, err, ErrCarNotAvailable)

	// Первый клиент доплачивает остаток, вебхук подтверждает оплату
	pay, err := fx.initiate.Execute(ctx, &initiatePayment.Request{
		BookingID:             hold.BookingID,
		UserID:                1,
		Gateway:               "stripe",
		ProviderTransactionID: "pi_flow_balance_1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9000), pay.Amount)

	settled, err := fx.reconcile.Execute(ctx, &reconcilePayment.Request{
		ProviderTransactionID: "pi_flow_balance_1",
		Outcome:               reconcilePayment.OutcomeSucceeded,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.BookingStatusConfirmed), settled.BookingStatus)
	assert.False(t, settled.ConflictAfterPayment)

	// Подтвержденное бронирование продолжает блокировать слот
	_, err = fx.createHold.Execute(ctx, &Request{
		CarID:       carID,
		UserID:      3,
		Window:      overlapping,
		PayMode:     domain.PayModeFull,
		TotalAmount: 10000,
	})
	assert.ErrorIs(t, err, ErrCarNotAvailable)

	// Соседнее окно свободно: границы полуоткрытые, касание не пересечение
	adjacent := domain.NewRentalWindow(window.EndAt, window.EndAt.Add(24*time.Hour))
	_, err = fx.createHold.Execute(ctx, &Request{
		CarID:       carID,
		UserID:      3,
		Window:      adjacent,
		PayMode:     domain.PayModeFull,
		TotalAmount: 10000,
	})
	require.NoError(t, err)
}

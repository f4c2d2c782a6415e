package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/psqlbuilder"
)

var bookingColumns = []string{
	"id",
	"car_id",
	"user_id",
	"start_at",
	"end_at",
	"status",
	"payment_status",
	"pay_mode",
	"hold_until",
	"hold_amount",
	"total_amount",
	"cancellation_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// ExpiredHold результат истечения холда: идентификаторы для ремонта
// кеша статуса автомобиля и публикации события
type ExpiredHold struct {
	BookingID int64
	CarID     int64
	UserID    int64
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Если в контексте передана активная транзакция, использует её —
// создание холда обязано выполняться в одной транзакции с проверкой
// пересечений, иначе check-then-insert гоночно под нагрузкой
func (r *Repository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"car_id",
			"user_id",
			"start_at",
			"end_at",
			"status",
			"payment_status",
			"pay_mode",
			"hold_until",
			"hold_amount",
			"total_amount",
		).
		Values(
			b.CarID,
			b.UserID,
			b.Window.StartAt,
			b.Window.EndAt,
			b.Status,
			b.PaymentStatus,
			b.PayMode,
			b.HoldUntil,
			b.HoldAmount,
			b.TotalAmount,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&b.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return b, nil
}

// GetByID получает бронирование по ID
// Внутри транзакции блокирует строку (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	b, err := r.scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return b, nil
}

// GetByUserID получает список бронирований пользователя
// Опционально фильтрует по статусу
func (r *Repository) GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("start_at DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// ListOverlapping возвращает бронирования автомобиля, пересекающиеся
// с окном [window.StartAt, window.EndAt) и занимающие слот:
// status IN (pending, confirmed), протухшие холды исключены.
// excludeID исключает бронирование из выборки (повторная проверка при подтверждении).
//
// Внутри транзакции блокирует строки (FOR UPDATE) — вместе с уровнем
// изоляции SERIALIZABLE это ключевая защита от double-booking
func (r *Repository) ListOverlapping(
	ctx context.Context,
	carID int64,
	window domain.RentalWindow,
	excludeID *int64,
	now time.Time,
) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"car_id": carID}).
		Where(squirrel.Eq{"status": []string{
			string(domain.BookingStatusPending),
			string(domain.BookingStatusConfirmed),
		}}).
		// Полуоткрытые интервалы: касание границ не является пересечением
		Where(squirrel.Lt{"start_at": window.EndAt}).
		Where(squirrel.Gt{"end_at": window.StartAt}).
		// Протухшие холды не занимают слот, даже если sweeper их еще не обработал
		Where(squirrel.Expr(
			"NOT (payment_status = ? AND hold_until IS NOT NULL AND hold_until < ?)",
			string(domain.PaymentStatusUnpaid), now,
		)).
		OrderBy("start_at ASC")

	if excludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *excludeID})
	}

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverlapping - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// CountSlotBlocking возвращает число бронирований, занимающих слот автомобиля
// Используется sweeper'ом для ремонта кеша booking_status
func (r *Repository) CountSlotBlocking(ctx context.Context, carID int64, now time.Time) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("bookings").
		Where(squirrel.Eq{"car_id": carID}).
		Where(squirrel.Eq{"status": []string{
			string(domain.BookingStatusPending),
			string(domain.BookingStatusConfirmed),
		}}).
		Where(squirrel.Expr(
			"NOT (payment_status = ? AND hold_until IS NOT NULL AND hold_until < ?)",
			string(domain.PaymentStatusUnpaid), now,
		)).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: CountSlotBlocking - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountSlotBlocking - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}

// Confirm промоутит бронирование: pending -> confirmed, paid, холд очищается
// CAS по статусу: если строка уже не pending, возвращает ErrStatusConflict
func (r *Repository) Confirm(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.BookingStatusConfirmed).
		Set("payment_status", domain.PaymentStatusPaid).
		Set("hold_until", nil).
		Set("hold_amount", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": domain.BookingStatusPending}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Confirm - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		// 23P01 exclusion_violation: подстраховка на уровне БД против
		// двух подтвержденных бронирований с пересекающимися окнами
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23P01" {
			return ErrOverlapConstraint
		}
		return fmt.Errorf("%w: Confirm - execute update: %v", ErrExecQuery, err)
	}

	return r.requireRowUpdated(result, "Confirm")
}

// MarkFailed переводит бронирование pending -> failed, освобождая слот
func (r *Repository) MarkFailed(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.BookingStatusFailed).
		Set("payment_status", domain.PaymentStatusUnpaid).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": domain.BookingStatusPending}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkFailed - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: MarkFailed - execute update: %v", ErrExecQuery, err)
	}

	return r.requireRowUpdated(result, "MarkFailed")
}

// SetPaymentStatus переводит payment_status с CAS по предыдущему значению
// Используется при закреплении холда: unpaid -> partial_hold
func (r *Repository) SetPaymentStatus(ctx context.Context, id int64, from, to domain.PaymentStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("payment_status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"payment_status": from}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SetPaymentStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetPaymentStatus - execute update: %v", ErrExecQuery, err)
	}

	return r.requireRowUpdated(result, "SetPaymentStatus")
}

// Cancel отменяет бронирование с указанием причины
// Разрешено только из pending и confirmed
func (r *Repository) Cancel(ctx context.Context, id int64, reason string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.BookingStatusCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": []string{
			string(domain.BookingStatusPending),
			string(domain.BookingStatusConfirmed),
		}}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Cancel - execute update: %v", ErrExecQuery, err)
	}

	return r.requireRowUpdated(result, "Cancel")
}

// ExpireStale переводит все протухшие холды в expired одним UPDATE
// Идемпотентно и безопасно при конкурентном запуске нескольких sweeper'ов:
// условие WHERE повторно проверяется после захвата блокировки строки,
// поэтому каждую строку обрабатывает ровно один воркер
func (r *Repository) ExpireStale(ctx context.Context, now time.Time) ([]ExpiredHold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.BookingStatusExpired).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"status": domain.BookingStatusPending}).
		Where(squirrel.Eq{"payment_status": domain.PaymentStatusUnpaid}).
		Where(squirrel.Expr("hold_until IS NOT NULL AND hold_until < ?", now)).
		Suffix("RETURNING id, car_id, user_id").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ExpireStale - build update query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ExpireStale - execute update: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	expired := make([]ExpiredHold, 0)
	for rows.Next() {
		var e ExpiredHold
		if err := rows.Scan(&e.BookingID, &e.CarID, &e.UserID); err != nil {
			return nil, fmt.Errorf("%w: ExpireStale - scan row: %v", ErrScanRow, err)
		}
		expired = append(expired, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ExpireStale - rows error: %v", ErrScanRow, err)
	}

	return expired, nil
}

func (r *Repository) requireRowUpdated(result sql.Result, method string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, method, err)
	}
	if rowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&b.ID,
		&b.CarID,
		&b.UserID,
		&b.Window.StartAt,
		&b.Window.EndAt,
		&b.Status,
		&b.PaymentStatus,
		&b.PayMode,
		&b.HoldUntil,
		&b.HoldAmount,
		&b.TotalAmount,
		&b.CancellationReason,
		&b.CancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Window = domain.NewRentalWindow(b.Window.StartAt, b.Window.EndAt)
	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return &b, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func (r *Repository) scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		b, err := r.scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

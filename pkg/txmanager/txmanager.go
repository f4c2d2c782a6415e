package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
)

var (
	// ErrSerializationFailure возвращается, когда транзакция не прошла
	// после всех повторов из-за конфликта сериализации
	ErrSerializationFailure = errors.New("txmanager: serialization failure after retries")

	// ErrTxTimeout возвращается при превышении таймаута транзакции
	ErrTxTimeout = errors.New("txmanager: transaction timed out")
)

const (
	// maxRetries максимальное число повторов при конфликте сериализации
	maxRetries = 3

	// retryBaseDelay базовая задержка перед повтором (растет экспоненциально)
	retryBaseDelay = 25 * time.Millisecond

	// txTimeout ограничение на выполнение одной транзакции,
	// чтобы не держать обработчик запроса бесконечно
	txTimeout = 10 * time.Second
)

// TxBeginner интерфейс для начала транзакций (реализуется *dbmetrics.DB)
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error)
}

// TransactionManager выполняет функции в сериализуемых транзакциях
// Повторяет транзакцию при serialization_failure / deadlock_detected
type TransactionManager struct {
	db TxBeginner
}

// NewTransactionManager создает новый transaction manager
func NewTransactionManager(db TxBeginner) *TransactionManager {
	return &TransactionManager{db: db}
}

// DoSerializable выполняет fn внутри транзакции с уровнем изоляции SERIALIZABLE
// Транзакция кладется в контекст; репозитории достают её через dbmetrics.GetExecutor
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrTxTimeout, ctx.Err())
			}
		}

		err := m.runOnce(ctx, fn)
		if err == nil {
			return nil
		}

		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w: %v", ErrSerializationFailure, lastErr)
}

func (m *TransactionManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("txmanager: begin transaction: %w", err)
	}

	if err := fn(dbmetrics.WithExecutor(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("txmanager: commit transaction: %w", err)
	}

	return nil
}

// isRetryable определяет, имеет ли смысл повторять транзакцию
// 40001 - serialization_failure, 40P01 - deadlock_detected
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

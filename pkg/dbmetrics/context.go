package dbmetrics

import "context"

type ctxKey int

const executorKey ctxKey = iota

// WithExecutor кладет исполнитель запросов (обычно транзакцию) в контекст
// Репозитории достают его через GetExecutor и таким образом участвуют
// в транзакции, открытой transaction manager'ом
func WithExecutor(ctx context.Context, exec DBExecutor) context.Context {
	return context.WithValue(ctx, executorKey, exec)
}

// GetExecutor возвращает исполнитель из контекста или fallback
func GetExecutor(ctx context.Context, fallback DBExecutor) DBExecutor {
	if exec, ok := ctx.Value(executorKey).(DBExecutor); ok {
		return exec
	}
	return fallback
}

// IsInTransaction сообщает, выполняется ли запрос внутри транзакции
// Используется репозиториями для добавления FOR UPDATE
func IsInTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(executorKey).(DBExecutor)
	return ok
}

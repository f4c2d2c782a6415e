package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор prometheus метрик сервиса
type Metrics struct {
	// HTTP метрики (используются в middleware)
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Метрики работы с БД (используются в dbmetrics)
	DBQueryDuration   *prometheus.HistogramVec
	DBConnectionsOpen *prometheus.GaugeVec
	DBConnectionsIdle *prometheus.GaugeVec

	// Метрики движка бронирования
	holdsCreatedTotal         *prometheus.CounterVec
	holdConflictsTotal        prometheus.Counter
	reconcilesTotal           *prometheus.CounterVec
	conflictAfterPaymentTotal prometheus.Counter
	staleHoldsExpiredTotal    prometheus.Counter
}

// New создает и регистрирует метрики сервиса
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),

		DBConnectionsOpen: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_connections_open",
			Help:        "Number of open database connections",
			ConstLabels: constLabels,
		}, []string{"state"}),

		DBConnectionsIdle: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_connections_idle",
			Help:        "Number of idle database connections",
			ConstLabels: constLabels,
		}, []string{"state"}),

		holdsCreatedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_holds_created_total",
			Help:        "Total number of reservation holds created, by pay mode",
			ConstLabels: constLabels,
		}, []string{"pay_mode"}),

		holdConflictsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "booking_hold_conflicts_total",
			Help:        "Total number of hold attempts rejected due to an overlapping booking",
			ConstLabels: constLabels,
		}),

		reconcilesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "payment_reconciles_total",
			Help:        "Total number of payment reconciliations, by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),

		conflictAfterPaymentTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "payment_conflict_after_payment_total",
			Help:        "Total number of payments that could not be honored because the slot was taken",
			ConstLabels: constLabels,
		}),

		staleHoldsExpiredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "booking_stale_holds_expired_total",
			Help:        "Total number of stale holds expired by the sweeper",
			ConstLabels: constLabels,
		}),
	}
}

// IncHoldCreated увеличивает счетчик созданных холдов
func (m *Metrics) IncHoldCreated(payMode string) {
	m.holdsCreatedTotal.WithLabelValues(payMode).Inc()
}

// IncHoldConflict увеличивает счетчик отклоненных по конфликту холдов
func (m *Metrics) IncHoldConflict() {
	m.holdConflictsTotal.Inc()
}

// IncReconcile увеличивает счетчик обработанных вебхуков по исходу
func (m *Metrics) IncReconcile(outcome string) {
	m.reconcilesTotal.WithLabelValues(outcome).Inc()
}

// IncConflictAfterPayment увеличивает счетчик конфликтов после оплаты
func (m *Metrics) IncConflictAfterPayment() {
	m.conflictAfterPaymentTotal.Inc()
}

// AddStaleHoldsExpired увеличивает счетчик истекших холдов
func (m *Metrics) AddStaleHoldsExpired(n int) {
	m.staleHoldsExpiredTotal.Add(float64(n))
}

// Noop заглушка метрик для выключенного сбора и тестов
type Noop struct{}

func (Noop) IncHoldCreated(string)    {}
func (Noop) IncHoldConflict()         {}
func (Noop) IncReconcile(string)      {}
func (Noop) IncConflictAfterPayment() {}
func (Noop) AddStaleHoldsExpired(int) {}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор метрик Prometheus сервиса
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueriesTotal  *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec

	dbPoolOpenConns  *prometheus.GaugeVec
	dbPoolIdleConns  *prometheus.GaugeVec
	dbPoolInUseConns *prometheus.GaugeVec

	invoicesGenerated    *prometheus.CounterVec
	duplicatesSuppressed prometheus.Counter
	remindersSent        prometheus.Counter
	sweepErrors          *prometheus.CounterVec
	paymentsRecorded     *prometheus.CounterVec
}

// New создает и регистрирует метрики сервиса
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),

		httpRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		dbQueriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_queries_total",
			Help:        "Total number of database queries",
			ConstLabels: constLabels,
		}, []string{"operation", "success"}),

		dbQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"operation"}),

		dbPoolOpenConns: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_pool_open_connections",
			Help:        "Number of open database connections",
			ConstLabels: constLabels,
		}, []string{}),

		dbPoolIdleConns: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_pool_idle_connections",
			Help:        "Number of idle database connections",
			ConstLabels: constLabels,
		}, []string{}),

		dbPoolInUseConns: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_pool_in_use_connections",
			Help:        "Number of in-use database connections",
			ConstLabels: constLabels,
		}, []string{}),

		invoicesGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "billing_invoices_generated_total",
			Help:        "Total number of invoices created, by origin",
			ConstLabels: constLabels,
		}, []string{"origin"}), // origin: auto | manual

		duplicatesSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "billing_duplicate_invoices_suppressed_total",
			Help:        "Duplicate invoice attempts resolved as benign no-ops",
			ConstLabels: constLabels,
		}),

		remindersSent: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "billing_overdue_reminders_sent_total",
			Help:        "Overdue payment reminders sent to clients",
			ConstLabels: constLabels,
		}),

		sweepErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "billing_sweep_item_errors_total",
			Help:        "Per-item failures inside scheduler sweeps",
			ConstLabels: constLabels,
		}, []string{"sweep"}), // sweep: overdue | auto_generate

		paymentsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "billing_payments_recorded_total",
			Help:        "Payments recorded, by method and initial status",
			ConstLabels: constLabels,
		}, []string{"method", "status"}),
	}
}

// ObserveHTTPRequest фиксирует обработанный HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveDBQuery фиксирует выполненный запрос к БД
func (m *Metrics) ObserveDBQuery(operation string, success bool, duration time.Duration) {
	successLabel := "true"
	if !success {
		successLabel = "false"
	}
	m.dbQueriesTotal.WithLabelValues(operation, successLabel).Inc()
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetDBPoolStats обновляет метрики connection pool
func (m *Metrics) SetDBPoolStats(open, idle, inUse int) {
	m.dbPoolOpenConns.WithLabelValues().Set(float64(open))
	m.dbPoolIdleConns.WithLabelValues().Set(float64(idle))
	m.dbPoolInUseConns.WithLabelValues().Set(float64(inUse))
}

// IncInvoiceGenerated учитывает созданный счёт
func (m *Metrics) IncInvoiceGenerated(auto bool) {
	origin := "manual"
	if auto {
		origin = "auto"
	}
	m.invoicesGenerated.WithLabelValues(origin).Inc()
}

// IncDuplicateSuppressed учитывает подавленный дубль счёта
func (m *Metrics) IncDuplicateSuppressed() {
	m.duplicatesSuppressed.Inc()
}

// IncReminderSent учитывает отправленное напоминание
func (m *Metrics) IncReminderSent() {
	m.remindersSent.Inc()
}

// IncSweepError учитывает ошибку обработки элемента в фоновой задаче
func (m *Metrics) IncSweepError(sweep string) {
	m.sweepErrors.WithLabelValues(sweep).Inc()
}

// IncPaymentRecorded учитывает зафиксированный платёж
func (m *Metrics) IncPaymentRecorded(method, status string) {
	m.paymentsRecorded.WithLabelValues(method, status).Inc()
}

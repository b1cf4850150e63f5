package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const namespace = "nemu"

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Database metrics
	DBConnectionsOpen        prometheus.Gauge
	DBConnectionsInUse       prometheus.Gauge
	DBConnectionsIdle        prometheus.Gauge
	DBConnectionsMax         prometheus.Gauge
	DBConnectionWaitTotal    prometheus.Counter
	DBConnectionWaitDuration prometheus.Counter
	DBQueryDuration          *prometheus.HistogramVec
	DBQueryErrors            *prometheus.CounterVec

	// External API metrics
	ExternalAPIRequestDuration *prometheus.HistogramVec
	ExternalAPIRequestsTotal   *prometheus.CounterVec
	ExternalAPIErrors          *prometheus.CounterVec

	// Business metrics
	RequestsTotal            prometheus.Gauge
	CommissionsOpenTotal     prometheus.Gauge
	RequestsSubmittedTotal   *prometheus.CounterVec
	RequestsDecidedTotal     *prometheus.CounterVec
	DecisionStepFailures     *prometheus.CounterVec
	InvoicesSentTotal        prometheus.Counter
	KanbanSubscribersCurrent prometheus.Gauge

	// pool wait counters are cumulative in sql.DBStats
	waitMu           sync.Mutex
	lastWaitCount    int64
	lastWaitDuration time.Duration

	logger *zap.Logger
}

// NewWithLogger registers on the default registry served at /metrics
func NewWithLogger(logger *zap.Logger) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, logger)
}

var (
	httpBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	dbBuckets       = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	externalBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
)

// registry binds every family to one registerer under the nemu namespace
type registry struct {
	factory promauto.Factory
}

func (r registry) counter(name, help string) prometheus.Counter {
	return r.factory.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
}

func (r registry) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return r.factory.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
}

func (r registry) gauge(name, help string) prometheus.Gauge {
	return r.factory.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

func (r registry) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return r.factory.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: name, Help: help, Buckets: buckets}, labels)
}

// NewWithRegistry registers every family on registerer. Each registerer can
// only take one Metrics.
func NewWithRegistry(registerer prometheus.Registerer, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := registry{factory: promauto.With(registerer)}

	return &Metrics{
		HTTPRequestsTotal: r.counterVec("http_requests_total",
			"Total number of HTTP requests", "method", "endpoint", "status"),
		HTTPRequestDuration: r.histogramVec("http_request_duration_seconds",
			"HTTP request duration in seconds", httpBuckets, "method", "endpoint"),

		DBConnectionsOpen:  r.gauge("db_connections_open", "Current number of open database connections"),
		DBConnectionsInUse: r.gauge("db_connections_in_use", "Current number of in-use database connections"),
		DBConnectionsIdle:  r.gauge("db_connections_idle", "Current number of idle database connections"),
		DBConnectionsMax:   r.gauge("db_connections_max", "Maximum number of open database connections configured"),
		DBConnectionWaitTotal: r.counter("db_connection_wait_total",
			"Total number of times waited for a database connection"),
		DBConnectionWaitDuration: r.counter("db_connection_wait_duration_seconds_total",
			"Total duration waited for database connections in seconds"),
		DBQueryDuration: r.histogramVec("db_query_duration_seconds",
			"Database query duration in seconds", dbBuckets, "operation", "table"),
		DBQueryErrors: r.counterVec("db_query_errors_total",
			"Total number of database query errors", "operation", "table"),

		ExternalAPIRequestDuration: r.histogramVec("external_api_request_duration_seconds",
			"External API request duration in seconds", externalBuckets, "endpoint", "status"),
		ExternalAPIRequestsTotal: r.counterVec("external_api_requests_total",
			"Total number of external API requests", "endpoint", "method", "status"),
		ExternalAPIErrors: r.counterVec("external_api_errors_total",
			"Total number of external API errors", "endpoint", "error_type"),

		RequestsTotal:        r.gauge("requests_total", "Total number of commission requests"),
		CommissionsOpenTotal: r.gauge("commissions_open_total", "Number of published commissions accepting requests"),
		RequestsSubmittedTotal: r.counterVec("requests_submitted_total",
			"Total number of submitted requests by initial status", "status"),
		RequestsDecidedTotal: r.counterVec("requests_decided_total",
			"Total number of completed accept or reject decisions", "outcome"),
		DecisionStepFailures: r.counterVec("decision_step_failures_total",
			"Total number of decision steps that failed, by stage", "stage"),
		InvoicesSentTotal: r.counter("invoices_sent_total", "Total number of invoices finalized and sent"),
		KanbanSubscribersCurrent: r.gauge("kanban_subscribers_current",
			"Current number of open kanban live-update connections"),

		logger: logger,
	}
}

// safeExecute runs fn unless m is nil. A panic from the client library is
// logged and swallowed.
func (m *Metrics) safeExecute(operation string, fn func()) {
	if m == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Panic in metrics operation", zap.String("operation", operation), zap.Any("panic", r))
		}
	}()
	fn()
}

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the console. Every Record
// method is safe to call on a nil *Metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	// Report upload metrics
	Uploads       *prometheus.CounterVec
	UploadRows    prometheus.Histogram
	UploadLatency prometheus.Histogram
	LedgerErrors  prometheus.Counter

	// Compensating actions taken after a partial failure
	Compensations *prometheus.CounterVec

	// Dashboard metrics
	DashboardLatency *prometheus.HistogramVec

	// Object store metrics
	BlobLatency *prometheus.HistogramVec

	// System metrics
	DBConnections *prometheus.GaugeVec
	RateLimitHits *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Uploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_uploads_total",
				Help:      "Performance sheet uploads by result",
			},
			[]string{"result"},
		),
		UploadRows: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_upload_rows",
				Help:      "Rows accepted per upload",
				Buckets:   []float64{1, 5, 10, 31, 100, 365, 1000, 5000},
			},
		),
		UploadLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_upload_duration_seconds",
				Help:      "End to end upload processing latency",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		LedgerErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_append_errors_total",
				Help:      "Failed appends to the performance ledger",
			},
		),
		Compensations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compensations_total",
				Help:      "Compensating actions after partial failures",
			},
			[]string{"operation"},
		),
		DashboardLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dashboard_duration_seconds",
				Help:      "Dashboard reducer latency",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"reducer", "cache"},
		),
		BlobLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "object_store_duration_seconds",
				Help:      "Object store operation latency",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"op", "result"},
		),
		DBConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections",
				Help:      "Database pool connections by state",
			},
			[]string{"state"},
		),
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Requests rejected by rate limiting",
			},
			[]string{"scope"},
		),
	}
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records a completed request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, latency time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(method, route).Observe(latency.Seconds())
}

// RecordUpload records the outcome of a performance upload.
func (m *Metrics) RecordUpload(result string, rows int, latency time.Duration) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(result).Inc()
	if rows > 0 {
		m.UploadRows.Observe(float64(rows))
	}
	m.UploadLatency.Observe(latency.Seconds())
}

func (m *Metrics) RecordLedgerError() {
	if m == nil {
		return
	}
	m.LedgerErrors.Inc()
}

func (m *Metrics) RecordCompensation(operation string) {
	if m == nil {
		return
	}
	m.Compensations.WithLabelValues(operation).Inc()
}

// RecordDashboard records reducer latency and whether the cache served it.
func (m *Metrics) RecordDashboard(reducer string, cacheHit bool, latency time.Duration) {
	if m == nil {
		return
	}
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	m.DashboardLatency.WithLabelValues(reducer, cache).Observe(latency.Seconds())
}

func (m *Metrics) RecordBlobOp(op string, err error, latency time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.BlobLatency.WithLabelValues(op, result).Observe(latency.Seconds())
}

// UpdateDBStats updates database connection metrics.
func (m *Metrics) UpdateDBStats(idle, inUse, total int) {
	if m == nil {
		return
	}
	m.DBConnections.WithLabelValues("idle").Set(float64(idle))
	m.DBConnections.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnections.WithLabelValues("total").Set(float64(total))
}

// RecordRateLimitHit records a rate limit hit.
func (m *Metrics) RecordRateLimitHit(scope string) {
	if m == nil {
		return
	}
	m.RateLimitHits.WithLabelValues(scope).Inc()
}

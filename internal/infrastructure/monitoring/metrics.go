package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive      prometheus.Gauge
	SessionOps          *prometheus.CounterVec
	SessionOpDuration   *prometheus.HistogramVec
	EngineQueryFailures *prometheus.CounterVec
	DetachedFailures    prometheus.Counter

	// Webhook metrics
	WebhookDeliveries *prometheus.CounterVec
	WebhookDuration   prometheus.Histogram

	// Media metrics
	MediaStored *prometheus.CounterVec
}

// NewMetrics registers all collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_sessions_active",
				Help: "Number of sessions holding a live engine",
			},
		),
		SessionOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_session_operations_total",
				Help: "Total number of session lifecycle operations",
			},
			[]string{"operation", "status"},
		),
		SessionOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_session_operation_duration_seconds",
				Help:    "Session lifecycle operation duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		EngineQueryFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_engine_query_failures_total",
				Help: "Engine introspection queries that degraded to empty results",
			},
			[]string{"query"},
		),
		DetachedFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "backend_detached_stop_failures_total",
				Help: "Background stops triggered by logout that failed",
			},
		),

		WebhookDeliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_webhook_deliveries_total",
				Help: "Total number of webhook deliveries",
			},
			[]string{"event", "status"},
		),
		WebhookDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "backend_webhook_delivery_duration_seconds",
				Help:    "Webhook delivery duration including retries",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),

		MediaStored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_media_stored_total",
				Help: "Media blobs stored, by detected MIME type",
			},
			[]string{"mimetype"},
		),
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSessionOp records a lifecycle operation outcome
func (m *Metrics) RecordSessionOp(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SessionOps.WithLabelValues(operation, status).Inc()
	m.SessionOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetSessionActive flips the active sessions gauge
func (m *Metrics) SetSessionActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.SessionsActive.Set(1)
	} else {
		m.SessionsActive.Set(0)
	}
}

// IncEngineQueryFailure counts a degraded engine query
func (m *Metrics) IncEngineQueryFailure(query string) {
	if m == nil {
		return
	}
	m.EngineQueryFailures.WithLabelValues(query).Inc()
}

// IncDetachedFailure counts a failed background stop
func (m *Metrics) IncDetachedFailure() {
	if m == nil {
		return
	}
	m.DetachedFailures.Inc()
}

// RecordWebhookDelivery records a delivery outcome
func (m *Metrics) RecordWebhookDelivery(event, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.WebhookDeliveries.WithLabelValues(event, status).Inc()
	m.WebhookDuration.Observe(duration.Seconds())
}

// IncMediaStored counts a stored media blob
func (m *Metrics) IncMediaStored(mimetype string) {
	if m == nil {
		return
	}
	m.MediaStored.WithLabelValues(mimetype).Inc()
}

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// Metrics returns a middleware that collects Prometheus metrics
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.status)

			httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// WebhookMetrics holds Prometheus metrics for the chain-activity ingress
type WebhookMetrics struct {
	Received          prometheus.Counter
	InvalidSignature  prometheus.Counter
	Reconciled        prometheus.Counter
	ReconcileFailures prometheus.Counter
}

// NewWebhookMetrics creates new webhook metrics
func NewWebhookMetrics() *WebhookMetrics {
	return &WebhookMetrics{
		Received: promauto.NewCounter(prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Total number of webhook deliveries received",
		}),
		InvalidSignature: promauto.NewCounter(prometheus.CounterOpts{
			Name: "webhook_invalid_signature_total",
			Help: "Total number of deliveries discarded for a bad signature",
		}),
		Reconciled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "webhook_reconciled_total",
			Help: "Total number of deliveries that mutated local state",
		}),
		ReconcileFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "webhook_reconcile_failures_total",
			Help: "Total number of deliveries acknowledged despite processing failure",
		}),
	}
}

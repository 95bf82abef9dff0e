package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics of the local read-only API
var (
	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	httpActiveConnections prometheus.Gauge

	httpOnce sync.Once
)

func initializeHTTPMetrics() {
	httpOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fasten_api_requests_total",
				Help: "Total number of requests served by the local API",
			},
			[]string{"method", "route", "status"},
		)

		httpRequestDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fasten_api_request_duration_seconds",
				Help:    "Duration of local API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		)

		httpActiveConnections = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fasten_api_active_connections",
				Help: "Number of in-flight local API requests",
			},
		)

		GetInstance().registry.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			httpActiveConnections,
		)
	})
}

// RecordHTTPRequest records metrics for an HTTP request
func RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	if !businessEnabled() {
		return
	}
	initializeHTTPMetrics()

	status := strconv.Itoa(statusCode)
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// IncActiveConnections increments active connections
func IncActiveConnections() {
	if !businessEnabled() {
		return
	}
	initializeHTTPMetrics()
	httpActiveConnections.Inc()
}

// DecActiveConnections decrements active connections
func DecActiveConnections() {
	if !businessEnabled() {
		return
	}
	initializeHTTPMetrics()
	httpActiveConnections.Dec()
}

package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics of the fetch cycle against the Fasten gateway
var (
	queryDuration        *prometheus.HistogramVec
	queryTotal           *prometheus.CounterVec
	gatewayRequestsTotal *prometheus.CounterVec
	tokenRefreshTotal    *prometheus.CounterVec
	fallbackTotal        *prometheus.CounterVec
	recordsExtracted     prometheus.Counter
	recordsSkipped       prometheus.Counter
	cycleDuration        *prometheus.HistogramVec

	queryOnce sync.Once
)

func initializeQueryMetrics() {
	queryOnce.Do(func() {
		queryDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fasten_query_duration_seconds",
				Help:    "Time spent on one resource kind query, recovery included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource_kind", "outcome"},
		)

		queryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fasten_queries_total",
				Help: "Total number of resource kind queries by final outcome",
			},
			[]string{"resource_kind", "outcome"},
		)

		gatewayRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fasten_gateway_requests_total",
				Help: "Total number of HTTP requests sent to the gateway",
			},
			[]string{"endpoint", "status_code"},
		)

		tokenRefreshTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fasten_token_refresh_total",
				Help: "Total number of token refresh attempts",
			},
			[]string{"result"},
		)

		fallbackTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fasten_fallback_queries_total",
				Help: "Total number of reduced fallback queries",
			},
			[]string{"resource_kind", "result"},
		)

		recordsExtracted = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fasten_records_extracted_total",
				Help: "Total number of records normalized for display",
			},
		)

		recordsSkipped = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fasten_records_skipped_total",
				Help: "Total number of records without a usable value",
			},
		)

		cycleDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fasten_fetch_cycle_duration_seconds",
				Help:    "Time spent on a full fetch and normalize cycle",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		GetInstance().registry.MustRegister(
			queryDuration,
			queryTotal,
			gatewayRequestsTotal,
			tokenRefreshTotal,
			fallbackTotal,
			recordsExtracted,
			recordsSkipped,
			cycleDuration,
		)
	})
}

// RecordQuery records the final outcome of one resource kind query
func RecordQuery(kind, outcome string, startTime time.Time) {
	if !businessEnabled() {
		return
	}
	initializeQueryMetrics()

	queryDuration.WithLabelValues(kind, outcome).Observe(time.Since(startTime).Seconds())
	queryTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordGatewayRequest records one HTTP round trip to the gateway. A zero
// status code means the request never got a response.
func RecordGatewayRequest(endpoint string, statusCode int) {
	if !businessEnabled() {
		return
	}
	initializeQueryMetrics()

	gatewayRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
}

// RecordTokenRefresh records a token refresh attempt
func RecordTokenRefresh(result string) {
	if !businessEnabled() {
		return
	}
	initializeQueryMetrics()

	tokenRefreshTotal.WithLabelValues(result).Inc()
}

// RecordFallback records a reduced fallback query
func RecordFallback(kind, result string) {
	if !businessEnabled() {
		return
	}
	initializeQueryMetrics()

	fallbackTotal.WithLabelValues(kind, result).Inc()
}

// RecordExtraction records the extracted and skipped counts of one cycle
func RecordExtraction(extracted, skipped int) {
	if !businessEnabled() {
		return
	}
	initializeQueryMetrics()

	recordsExtracted.Add(float64(extracted))
	recordsSkipped.Add(float64(skipped))
}

// RecordCycle records the duration of a full fetch cycle
func RecordCycle(result string, startTime time.Time) {
	if !businessEnabled() {
		return
	}
	initializeQueryMetrics()

	cycleDuration.WithLabelValues(result).Observe(time.Since(startTime).Seconds())
}

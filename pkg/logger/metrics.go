package logger

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP handler latency
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestTotal counts HTTP requests
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// ErrorsTotal counts errors by originating component
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors",
		},
		[]string{"service", "error_type"},
	)
)

// ObserveRequest records one finished HTTP request
func ObserveRequest(method, endpoint string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	RequestDuration.WithLabelValues(method, endpoint, code).Observe(elapsed.Seconds())
	RequestTotal.WithLabelValues(method, endpoint, code).Inc()
}

// CountError increments the error counter for a component
func CountError(service, errorType string) {
	ErrorsTotal.WithLabelValues(service, errorType).Inc()
}

// Package observability provides Prometheus metrics and handler middleware
// for monitoring GraphQL function invocations.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DurationBuckets covers GraphQL executions from a few milliseconds up to
// long-running subscriptions.
var DurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

var (
	// InvocationsTotal counts handled invocations by method and status class.
	InvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gqlfunc_invocations_total",
			Help: "Total invocations",
		},
		[]string{"method", "status"},
	)

	// InvocationDuration records the time until a response is handed to the host.
	InvocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gqlfunc_invocation_duration_seconds",
			Help:    "Invocation duration",
			Buckets: DurationBuckets,
		},
		[]string{"method"},
	)

	// ChunkedStreamsActive tracks chunked responses currently being drained.
	ChunkedStreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gqlfunc_chunked_streams_active",
			Help: "Active chunked streams",
		},
	)

	// BoundaryErrorsTotal counts failures converted to responses, by error kind.
	BoundaryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gqlfunc_boundary_errors_total",
			Help: "Errors handled at the function boundary",
		},
		[]string{"kind"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gqlfunc_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(
		InvocationsTotal,
		InvocationDuration,
		ChunkedStreamsActive,
		BoundaryErrorsTotal,
		RateLimitRejectedTotal,
	)
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

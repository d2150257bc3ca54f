package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// VisibilityChecks counts visibility evaluations by resource type and decision (allow|deny).
	VisibilityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_visibility_checks_total",
			Help: "Total number of visibility decisions",
		},
		[]string{"resource_type", "decision"},
	)

	// VisibilityWrites counts rule mutations by operation (set|bulk|copy) and result.
	VisibilityWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_visibility_writes_total",
			Help: "Total number of visibility rule writes",
		},
		[]string{"operation", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

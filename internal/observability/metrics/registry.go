// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recurrence metrics track the successor generation job
var (
	// RecurrenceCandidatesTotal counts articles selected as due for a successor
	RecurrenceCandidatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recurrence_candidates_total",
			Help: "Total number of recurring articles selected for successor generation",
		},
	)

	// RecurrenceChildrenCreatedTotal counts successors created and linked
	RecurrenceChildrenCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recurrence_children_created_total",
			Help: "Total number of successor articles created",
		},
	)

	// RecurrenceCandidateFailuresTotal counts candidates that could not be advanced
	RecurrenceCandidateFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recurrence_candidate_failures_total",
			Help: "Total number of candidates that failed, by reason",
		},
		[]string{"reason"}, // reason: validation, storage, already_linked, canceled
	)

	// RecurrenceRunDuration measures one full run
	RecurrenceRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recurrence_run_duration_seconds",
			Help:    "Duration of a recurrence run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks in-use database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// CircuitBreakerState reports each breaker's state: 0 closed, 1 half-open, 2 open.
var CircuitBreakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	},
	[]string{"name"},
)

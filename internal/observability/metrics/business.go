package metrics

import (
	"database/sql"
	"time"
)

// Failure reasons for RecordRecurrenceFailure.
const (
	ReasonValidation    = "validation"
	ReasonStorage       = "storage"
	ReasonAlreadyLinked = "already_linked"
	ReasonCanceled      = "canceled"
)

// RecordRecurrenceCandidates adds the number of candidates one run selected.
func RecordRecurrenceCandidates(n int) {
	RecurrenceCandidatesTotal.Add(float64(n))
}

// RecordChildCreated records one successor article created and linked.
func RecordChildCreated() {
	RecurrenceChildrenCreatedTotal.Inc()
}

// RecordRecurrenceFailure records a candidate that was not advanced.
// reason should be one of the Reason* constants.
func RecordRecurrenceFailure(reason string) {
	RecurrenceCandidateFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordRecurrenceRun records the duration of a complete run.
func RecordRecurrenceRun(duration time.Duration) {
	RecurrenceRunDuration.Observe(duration.Seconds())
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "article_by_query", "article_create_linked").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBPoolStats copies connection pool counters into the gauges.
func UpdateDBPoolStats(stats sql.DBStats) {
	DBConnectionsActive.Set(float64(stats.InUse))
	DBConnectionsIdle.Set(float64(stats.Idle))
}

// SetCircuitBreakerState records the state of the named breaker.
// state follows gobreaker's numbering.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

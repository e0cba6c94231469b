// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the worker's metrics:
//   - Recurrence job metrics (candidates, created successors, failures, run duration)
//   - Database query and connection pool metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "funding-catalog/internal/observability/metrics"
//
//	func run(ctx context.Context) {
//	    start := time.Now()
//	    // ... advance candidates ...
//	    metrics.RecordRecurrenceRun(time.Since(start))
//	}
package metrics

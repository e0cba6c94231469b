// Package observability groups the worker's logging, metrics and tracing helpers.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry tracer and span helpers
package observability

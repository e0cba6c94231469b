// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are created through the global otel tracer provider. Without an SDK
// provider installed they are no-ops, so instrumented code runs unchanged in
// tests. The worker calls Setup at start-up to install one, and wraps its
// HTTP endpoints with Middleware.
//
// Example usage:
//
//	func run(ctx context.Context) (err error) {
//	    ctx, span := tracing.StartSpan(ctx, "recurrence.run")
//	    defer func() { tracing.EndSpan(span, err) }()
//	    // ...
//	}
package tracing

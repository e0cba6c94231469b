// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON output with configurable level (LOG_LEVEL)
//   - Run ID propagation for batch jobs
//   - Context-aware logging
//   - Credential masking for driver errors (SanitizeError)
//
// Example usage:
//
//	import "funding-catalog/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    slog.SetDefault(logger)
//	}
//
//	func run(ctx context.Context) {
//	    ctx = logging.ContextWithRunID(ctx, runID)
//	    logging.WithRunID(ctx, slog.Default()).Info("run started")
//	}
package logging

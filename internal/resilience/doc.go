// Package resilience groups the fault tolerance helpers around the database.
//
// Subpackages:
//   - circuitbreaker: gobreaker wrapper and a circuit-protected *sql.DB handle
//   - retry: exponential backoff with jitter for transient connection errors
//
// Usage Example:
//
//	handle := circuitbreaker.NewDBCircuitBreaker(sqlDB)
//	err := retry.WithBackoff(ctx, retry.StartupConfig(), func() error {
//	    return handle.PingContext(ctx)
//	})
package resilience

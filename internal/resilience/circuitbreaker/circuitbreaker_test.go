package circuitbreaker

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"funding-catalog/internal/observability/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tripFast opens after two calls with at least half of them failing.
func tripFast(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          20 * time.Millisecond,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}
}

func gauge(name string) float64 {
	return testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues(name))
}

func fail(err error) func() (any, error) {
	return func() (any, error) { return nil, err }
}

func TestNew_PublishesClosedState(t *testing.T) {
	metrics.SetCircuitBreakerState("catalog-new", int(gobreaker.StateOpen))

	cb := New(tripFast("catalog-new"))

	assert.Equal(t, "catalog-new", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, float64(gobreaker.StateClosed), gauge("catalog-new"))
}

func TestCircuitBreaker_IsSuccessfulKeepsCircuitClosed(t *testing.T) {
	cfg := tripFast("catalog-accepted")
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, sql.ErrNoRows)
	}
	cb := New(cfg)

	for range 10 {
		_, err := cb.Execute(fail(sql.ErrNoRows))
		require.ErrorIs(t, err, sql.ErrNoRows, "accepted errors still reach the caller")
	}

	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.False(t, cb.IsOpen())
	assert.Equal(t, float64(gobreaker.StateClosed), gauge("catalog-accepted"))
}

func TestCircuitBreaker_IsSuccessfulStillCountsOtherErrors(t *testing.T) {
	cfg := tripFast("catalog-mixed")
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, sql.ErrNoRows)
	}
	cb := New(cfg)

	_, _ = cb.Execute(fail(sql.ErrConnDone))
	_, _ = cb.Execute(fail(sql.ErrConnDone))

	assert.True(t, cb.IsOpen())
}

func TestCircuitBreaker_NilIsSuccessfulCountsEveryError(t *testing.T) {
	cb := New(tripFast("catalog-default"))

	_, _ = cb.Execute(fail(sql.ErrNoRows))
	_, _ = cb.Execute(fail(sql.ErrNoRows))

	assert.True(t, cb.IsOpen())
}

func TestCircuitBreaker_TripUpdatesGauge(t *testing.T) {
	cb := New(tripFast("catalog-trip"))

	_, _ = cb.Execute(func() (any, error) { return "ok", nil })
	assert.Equal(t, float64(gobreaker.StateClosed), gauge("catalog-trip"))

	_, _ = cb.Execute(fail(sql.ErrConnDone))
	require.True(t, cb.IsOpen())
	assert.Equal(t, float64(gobreaker.StateOpen), gauge("catalog-trip"))

	_, err := cb.Execute(func() (any, error) {
		t.Fatal("open circuit must not run the call")
		return nil, nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestCircuitBreaker_RecoveryUpdatesGauge(t *testing.T) {
	cb := New(tripFast("catalog-recover"))
	_, _ = cb.Execute(fail(sql.ErrConnDone))
	_, _ = cb.Execute(fail(sql.ErrConnDone))
	require.True(t, cb.IsOpen())

	time.Sleep(30 * time.Millisecond)

	require.Equal(t, gobreaker.StateHalfOpen, cb.State())
	assert.Equal(t, float64(gobreaker.StateHalfOpen), gauge("catalog-recover"))

	got, err := cb.Execute(func() (any, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, float64(gobreaker.StateClosed), gauge("catalog-recover"))
}

// Package config loads process settings from the environment with a
// fail-open policy: a malformed or out-of-range value never stops the
// process, it is replaced by the default and reported as a warning.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LoadResult is the outcome of loading one setting.
// Warnings holds one message per fallback; FallbackApplied is set whenever
// the default replaced a value that was present but unusable.
type LoadResult[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// Load reads envKey, converts it with parse and checks it with validate.
// An unset or empty variable yields defaultValue without a warning.
// A parse or validation failure yields defaultValue with a warning.
// validate may be nil.
func Load[T any](envKey string, defaultValue T, parse func(string) (T, error), validate func(T) error) LoadResult[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[T]{Value: defaultValue}
	}

	fallback := func(err error) LoadResult[T] {
		return LoadResult[T]{
			Value: defaultValue,
			Warnings: []string{fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%v'",
				envKey, raw, err, defaultValue,
			)},
			FallbackApplied: true,
		}
	}

	v, err := parse(raw)
	if err != nil {
		return fallback(err)
	}
	if validate != nil {
		if err := validate(v); err != nil {
			return fallback(err)
		}
	}
	return LoadResult[T]{Value: v}
}

// LoadEnvString returns envKey or defaultValue when unset. No validation.
func LoadEnvString(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

// LoadEnvWithFallback loads a validated string.
func LoadEnvWithFallback(envKey, defaultValue string, validate func(string) error) LoadResult[string] {
	return Load(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validate)
}

// LoadEnvDuration loads a Go duration string such as "90s" or "1h30m".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validate func(time.Duration) error) LoadResult[time.Duration] {
	return Load(envKey, defaultValue, time.ParseDuration, validate)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validate func(int) error) LoadResult[int] {
	return Load(envKey, defaultValue, parseInt, validate)
}

// LoadEnvBool loads a boolean in any form strconv.ParseBool accepts.
func LoadEnvBool(envKey string, defaultValue bool) LoadResult[bool] {
	return Load(envKey, defaultValue, parseBool, nil)
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format")
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
	}
	return v, nil
}

package worker

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"funding-catalog/internal/pkg/config"

	"gopkg.in/yaml.v3"
)

// Environment keys read by LoadConfigFromEnv.
const (
	EnvConfigFile            = "WORKER_CONFIG_FILE"
	EnvCronSchedule          = "CRON_SCHEDULE"
	EnvTimezone              = "WORKER_TIMEZONE"
	EnvRecurrenceParallelism = "RECURRENCE_PARALLELISM"
	EnvRecurrenceTimeout     = "RECURRENCE_TIMEOUT"
	EnvRecurrenceRate        = "RECURRENCE_MAX_PER_SECOND"
	EnvRecurrenceRunOnStart  = "RECURRENCE_RUN_ON_START"
	EnvHealthPort            = "WORKER_HEALTH_PORT"
	EnvMetricsPort           = "METRICS_PORT"
)

// WorkerConfig holds the settings of the recurrence worker process.
type WorkerConfig struct {
	// CronSchedule is a five-field cron expression, evaluated in Timezone.
	CronSchedule string
	// Timezone is an IANA zone name.
	Timezone string
	// RecurrenceParallelism bounds how many candidates one run advances at once. 1-32.
	RecurrenceParallelism int
	// RecurrenceTimeout caps a single run. 1m-2h.
	RecurrenceTimeout time.Duration
	// RecurrenceMaxPerSecond throttles successor creation. 0 means unlimited.
	RecurrenceMaxPerSecond int
	// RecurrenceRunOnStart triggers one run right after the scheduler starts.
	RecurrenceRunOnStart bool
	HealthPort           int
	MetricsPort          int
}

// DefaultConfig returns the production defaults: a nightly run at 03:00
// Berlin time with four parallel candidates and a ten minute budget.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:          "0 3 * * *",
		Timezone:              "Europe/Berlin",
		RecurrenceParallelism: 4,
		RecurrenceTimeout:     10 * time.Minute,
		HealthPort:            9091,
		MetricsPort:           9090,
	}
}

func validateParallelism(v int) error { return config.ValidateIntRange(v, 1, 32) }

func validateTimeout(d time.Duration) error {
	return config.ValidateDuration(d, time.Minute, 2*time.Hour)
}

func validateRate(v int) error { return config.ValidateIntRange(v, 0, 1000) }

// Validate checks every field and reports all failures together.
func (c *WorkerConfig) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := validateParallelism(c.RecurrenceParallelism); err != nil {
		errs = append(errs, fmt.Errorf("recurrence parallelism: %w", err))
	}
	if err := validateTimeout(c.RecurrenceTimeout); err != nil {
		errs = append(errs, fmt.Errorf("recurrence timeout: %w", err))
	}
	if err := validateRate(c.RecurrenceMaxPerSecond); err != nil {
		errs = append(errs, fmt.Errorf("recurrence max per second: %w", err))
	}
	if err := config.ValidatePort(c.HealthPort); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidatePort(c.MetricsPort); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health port and metrics port must differ, both are %d", c.HealthPort))
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// Location resolves Timezone. Call after Validate.
func (c *WorkerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// fileConfig is the YAML shape of a worker config file. Absent keys keep
// their defaults.
type fileConfig struct {
	CronSchedule          *string `yaml:"cron_schedule"`
	Timezone              *string `yaml:"timezone"`
	RecurrenceParallelism *int    `yaml:"recurrence_parallelism"`
	RecurrenceTimeout     *string `yaml:"recurrence_timeout"`
	RecurrenceMaxPerSec   *int    `yaml:"recurrence_max_per_second"`
	RecurrenceRunOnStart  *bool   `yaml:"recurrence_run_on_start"`
	HealthPort            *int    `yaml:"health_port"`
	MetricsPort           *int    `yaml:"metrics_port"`
}

// loader applies values field by field and keeps track of fallbacks.
type loader struct {
	logger   *slog.Logger
	metrics  *WorkerMetrics
	fallback bool
}

func (l *loader) reject(field, source string, warnings []string) {
	l.fallback = true
	l.metrics.RecordValidationError(field)
	l.metrics.RecordFallback(field)
	for _, w := range warnings {
		l.logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("source", source),
			slog.String("warning", w))
	}
}

func apply[T any](l *loader, field string, dst *T, r config.LoadResult[T]) {
	*dst = r.Value
	if r.FallbackApplied {
		l.reject(field, "env", r.Warnings)
	}
}

func overlay[T any](l *loader, field string, dst *T, v *T, validate func(T) error) {
	if v == nil {
		return
	}
	if validate == nil {
		*dst = *v
		return
	}
	if err := validate(*v); err != nil {
		l.reject(field, "file", []string{fmt.Sprintf(
			"invalid %s=%v in config file: %v, keeping '%v'", field, *v, err, *dst)})
		return
	}
	*dst = *v
}

// loadConfigFile decodes a YAML worker config. Unknown keys are an error.
func loadConfigFile(path string) (*fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read worker config %s: %w", path, err)
	}
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode worker config %s: %w", path, err)
	}
	return &fc, nil
}

// LoadConfigFromEnv builds the worker config in three layers: defaults, the
// optional YAML file named by WORKER_CONFIG_FILE, then environment variables.
// It never fails. A value that does not parse or validate is ignored with a
// warning and a fallback metric, and the previous layer's value stays.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	l := &loader{logger: logger, metrics: metrics}

	if path := os.Getenv(EnvConfigFile); path != "" {
		fc, err := loadConfigFile(path)
		if err != nil {
			l.reject("config_file", "file", []string{err.Error()})
		} else {
			overlay(l, "cron_schedule", &cfg.CronSchedule, fc.CronSchedule, config.ValidateCronSchedule)
			overlay(l, "timezone", &cfg.Timezone, fc.Timezone, config.ValidateTimezone)
			overlay(l, "recurrence_parallelism", &cfg.RecurrenceParallelism, fc.RecurrenceParallelism, validateParallelism)
			if fc.RecurrenceTimeout != nil {
				d, err := time.ParseDuration(*fc.RecurrenceTimeout)
				if err != nil {
					l.reject("recurrence_timeout", "file", []string{fmt.Sprintf(
						"invalid recurrence_timeout=%s in config file: %v, keeping '%v'",
						*fc.RecurrenceTimeout, err, cfg.RecurrenceTimeout)})
				} else {
					overlay(l, "recurrence_timeout", &cfg.RecurrenceTimeout, &d, validateTimeout)
				}
			}
			overlay(l, "recurrence_max_per_second", &cfg.RecurrenceMaxPerSecond, fc.RecurrenceMaxPerSec, validateRate)
			overlay(l, "recurrence_run_on_start", &cfg.RecurrenceRunOnStart, fc.RecurrenceRunOnStart, nil)
			overlay(l, "health_port", &cfg.HealthPort, fc.HealthPort, config.ValidatePort)
			overlay(l, "metrics_port", &cfg.MetricsPort, fc.MetricsPort, config.ValidatePort)
		}
	}

	apply(l, "cron_schedule", &cfg.CronSchedule,
		config.LoadEnvWithFallback(EnvCronSchedule, cfg.CronSchedule, config.ValidateCronSchedule))
	apply(l, "timezone", &cfg.Timezone,
		config.LoadEnvWithFallback(EnvTimezone, cfg.Timezone, config.ValidateTimezone))
	apply(l, "recurrence_parallelism", &cfg.RecurrenceParallelism,
		config.LoadEnvInt(EnvRecurrenceParallelism, cfg.RecurrenceParallelism, validateParallelism))
	apply(l, "recurrence_timeout", &cfg.RecurrenceTimeout,
		config.LoadEnvDuration(EnvRecurrenceTimeout, cfg.RecurrenceTimeout, validateTimeout))
	apply(l, "recurrence_max_per_second", &cfg.RecurrenceMaxPerSecond,
		config.LoadEnvInt(EnvRecurrenceRate, cfg.RecurrenceMaxPerSecond, validateRate))
	apply(l, "recurrence_run_on_start", &cfg.RecurrenceRunOnStart,
		config.LoadEnvBool(EnvRecurrenceRunOnStart, cfg.RecurrenceRunOnStart))
	apply(l, "health_port", &cfg.HealthPort,
		config.LoadEnvInt(EnvHealthPort, cfg.HealthPort, config.ValidatePort))
	apply(l, "metrics_port", &cfg.MetricsPort,
		config.LoadEnvInt(EnvMetricsPort, cfg.MetricsPort, config.ValidatePort))

	// two servers cannot share a port; move metrics back to its default
	if cfg.HealthPort == cfg.MetricsPort {
		def := DefaultConfig()
		l.reject("metrics_port", "merged", []string{fmt.Sprintf(
			"metrics port %d collides with health port, using %d", cfg.MetricsPort, def.MetricsPort)})
		cfg.MetricsPort = def.MetricsPort
		if cfg.HealthPort == cfg.MetricsPort {
			cfg.HealthPort = def.HealthPort
		}
	}

	metrics.SetFallbackActive(l.fallback)
	metrics.RecordLoadTimestamp()
	return &cfg
}

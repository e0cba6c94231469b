// Command worker runs the recurrence job on a cron schedule: every run finds
// recurring articles whose application deadline has passed and creates
// their successor announcement.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	pgRepo "funding-catalog/internal/infra/adapter/persistence/postgres"
	"funding-catalog/internal/infra/db"
	workerPkg "funding-catalog/internal/infra/worker"
	"funding-catalog/internal/observability/logging"
	"funding-catalog/internal/observability/metrics"
	"funding-catalog/internal/observability/tracing"
	"funding-catalog/internal/resilience/circuitbreaker"
	"funding-catalog/internal/resilience/retry"
	"funding-catalog/internal/usecase/recurrence"
)

const poolStatsInterval = 15 * time.Second

func main() {
	// a missing .env is normal in containers
	_ = godotenv.Load()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("worker stopped with error", logging.Error(err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exporterOpts, err := tracing.ExporterFromEnv(ctx)
	if err != nil {
		logger.Warn("tracing exporter disabled", logging.Error(err))
	}
	shutdownTracing := tracing.Setup("funding-catalog-worker", exporterOpts...)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	cfg := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Int("recurrence_parallelism", cfg.RecurrenceParallelism),
		slog.Duration("recurrence_timeout", cfg.RecurrenceTimeout),
		slog.Int("recurrence_max_per_second", cfg.RecurrenceMaxPerSecond),
		slog.Bool("recurrence_run_on_start", cfg.RecurrenceRunOnStart),
		slog.Int("health_port", cfg.HealthPort),
		slog.Int("metrics_port", cfg.MetricsPort))

	database, err := initDatabase(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	go reportPoolStats(ctx, database)

	breaker := circuitbreaker.NewDBCircuitBreaker(database)
	svc := recurrence.NewService(pgRepo.NewArticleRepo(breaker), recurrence.Config{
		Parallelism:  cfg.RecurrenceParallelism,
		MaxPerSecond: float64(cfg.RecurrenceMaxPerSecond),
	})

	startMetricsServer(ctx, logger, cfg.MetricsPort)

	healthServer := newHealthServer(logger, cfg.HealthPort, breaker)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	return runScheduler(ctx, logger, svc, cfg, workerMetrics, healthServer)
}

// initDatabase opens the pool, waits for the server to accept connections
// and applies the schema.
func initDatabase(ctx context.Context, logger *slog.Logger) (*sql.DB, error) {
	database, err := db.Open()
	if err != nil {
		return nil, err
	}

	err = retry.WithBackoff(ctx, retry.StartupConfig(), func() error {
		return db.Ping(ctx, database, 5*time.Second)
	})
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	if err := db.MigrateUp(database); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database ready")
	return database, nil
}

func reportPoolStats(ctx context.Context, database *sql.DB) {
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()
	for {
		metrics.UpdateDBPoolStats(database.Stats())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func newHealthServer(logger *slog.Logger, port int, breaker *circuitbreaker.DBCircuitBreaker) *workerPkg.HealthServer {
	hs := workerPkg.NewHealthServer(fmt.Sprintf(":%d", port), logger)
	hs.AddCheck("database", func(ctx context.Context) error {
		return db.Ping(ctx, breaker, time.Second)
	})
	hs.AddCheck("circuit_breaker", func(context.Context) error {
		if breaker.IsOpen() {
			return fmt.Errorf("database circuit breaker is %s", breaker.State())
		}
		return nil
	})
	return hs
}

// runScheduler blocks until ctx is cancelled, then waits for a running job.
func runScheduler(ctx context.Context, logger *slog.Logger, svc runner, cfg *workerPkg.WorkerConfig, m *workerPkg.WorkerMetrics, hs *workerPkg.HealthServer) error {
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	cl := cronLogger{logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	job := func() { runRecurrenceJob(ctx, logger, svc, cfg.RecurrenceTimeout, m) }
	if _, err := c.AddFunc(cfg.CronSchedule, job); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	c.Start()

	if cfg.RecurrenceRunOnStart {
		go job()
	}

	hs.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", loc.String()))

	<-ctx.Done()
	hs.SetReady(false)
	logger.Info("shutdown signal received, waiting for running job")

	select {
	case <-c.Stop().Done():
	case <-time.After(cfg.RecurrenceTimeout):
		logger.Warn("running job did not finish before shutdown deadline")
	}
	logger.Info("worker stopped")
	return nil
}

// runner is the part of recurrence.Service the scheduler drives.
type runner interface {
	Run(ctx context.Context) (*recurrence.RunReport, error)
}

// runRecurrenceJob executes one run under timeout and records its outcome.
// It returns the status label it recorded.
func runRecurrenceJob(parent context.Context, logger *slog.Logger, svc runner, timeout time.Duration, m *workerPkg.WorkerMetrics) string {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	report, err := svc.Run(ctx)
	m.RecordJobDuration(time.Since(start).Seconds())
	if report != nil {
		m.RecordArticlesAdvanced(len(report.Advanced))
	}

	status := workerPkg.StatusSuccess
	switch {
	case err != nil:
		status = workerPkg.StatusFailure
		logger.Error("recurrence job failed", logging.Error(err))
	case report != nil && len(report.Failures) > 0:
		status = workerPkg.StatusPartial
		for _, f := range report.Failures {
			logger.Warn("recurrence candidate not advanced",
				slog.String("run_id", report.RunID),
				slog.Int64("parent_id", f.Parent.Int64()),
				logging.Error(f.Err))
		}
	default:
		m.RecordLastSuccess()
	}
	m.RecordJobRun(status)

	if report != nil {
		logger.Info("recurrence job finished",
			slog.String("status", status),
			slog.String("run_id", report.RunID),
			slog.Int("candidates", report.Candidates),
			slog.Int("advanced", len(report.Advanced)),
			slog.Int("skipped", report.Skipped),
			slog.Int("failures", len(report.Failures)),
			slog.Duration("duration", report.Duration))
	}
	return status
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}

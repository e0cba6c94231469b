package worker

import (
	"funding-catalog/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job run outcomes used as the status label.
const (
	StatusSuccess = "success"
	// StatusPartial marks a run that finished with candidate failures.
	StatusPartial = "partial"
	StatusFailure = "failure"
)

// WorkerMetrics combines the worker's configuration metrics with cron job
// metrics:
//
//	worker_cron_job_runs_total{status}
//	worker_cron_job_duration_seconds
//	worker_cron_job_articles_advanced_total
//	worker_cron_job_last_success_timestamp
type WorkerMetrics struct {
	*config.ConfigMetrics

	CronJobRunsTotal            *prometheus.CounterVec
	CronJobDurationSeconds      prometheus.Histogram
	CronJobArticlesAdvanced     prometheus.Counter
	CronJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the worker metrics with the default registry.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWith(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWith registers the worker metrics with reg.
func NewWorkerMetricsWith(reg prometheus.Registerer) *WorkerMetrics {
	f := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "worker"),

		CronJobRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of cron job runs by status (success/partial/failure)",
		}, []string{"status"}),

		CronJobDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of cron job execution in seconds",
			Buckets: []float64{0.5, 1, 5, 30, 60, 300, 600, 1800},
		}),

		CronJobArticlesAdvanced: f.NewCounter(prometheus.CounterOpts{
			Name: "worker_cron_job_articles_advanced_total",
			Help: "Total number of recurring articles that received a successor",
		}),

		CronJobLastSuccessTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last cron job run without failures",
		}),
	}
}

// RecordJobRun counts one run with the given status.
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.CronJobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes a run's duration in seconds.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.CronJobDurationSeconds.Observe(seconds)
}

// RecordArticlesAdvanced adds the successors created by one run.
func (m *WorkerMetrics) RecordArticlesAdvanced(count int) {
	m.CronJobArticlesAdvanced.Add(float64(count))
}

// RecordLastSuccess stamps the current time as the last clean run.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}

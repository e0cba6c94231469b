package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DurationSeconds tracks listing duration by operation (search, archived, count).
	DurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_listing_duration_seconds",
			Help:    "Paginated listing duration distribution",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0},
		},
		[]string{"operation"},
	)

	// TotalCount tracks the unpaginated match count of the last listing.
	TotalCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_listing_total_count",
			Help: "Unpaginated match count of the most recent listing",
		},
		[]string{"operation"},
	)
)

// RecordDuration records operation duration in seconds.
func RecordDuration(operation string, seconds float64) {
	DurationSeconds.WithLabelValues(operation).Observe(seconds)
}

// UpdateTotalCount sets the total gauge for operation.
func UpdateTotalCount(operation string, count int64) {
	TotalCount.WithLabelValues(operation).Set(float64(count))
}

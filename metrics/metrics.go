// Package metrics holds the Prometheus collectors shared by the search,
// catalogue and booking paths. Collectors live on a dedicated registry so a
// batch run can dump them with WriteTextfile for the node exporter textfile
// collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every hotelsearch collector.
var Registry = prometheus.NewRegistry()

var (
	// Search metrics
	searchRuns = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "hotelsearch_search_runs_total",
			Help: "Total number of nearest-neighbour search runs",
		},
	)

	searchDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hotelsearch_search_duration_seconds",
			Help:    "Nearest-neighbour search latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	searchResults = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hotelsearch_search_results",
			Help:    "Number of results returned per search run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 6),
		},
	)

	// Booking metrics
	bookingsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotelsearch_bookings_total",
			Help: "Total number of booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Index metrics
	indexBuilds = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotelsearch_index_builds_total",
			Help: "Total number of catalogue index builds by kind and source",
		},
		[]string{"kind", "source"},
	)

	indexBuildDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hotelsearch_index_build_duration_seconds",
			Help:    "Catalogue index build latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	indexSize = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "hotelsearch_index_points",
			Help: "Number of points in the most recently built catalogue index",
		},
	)
)

// Booking outcomes.
const (
	OutcomeConfirmed = "confirmed"
	OutcomeSoldOut   = "sold_out"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
)

// Index build sources.
const (
	SourceBuild    = "build"
	SourceSnapshot = "snapshot"
)

// ObserveSearch records one completed search run.
func ObserveSearch(duration time.Duration, results int) {
	searchRuns.Inc()
	searchDuration.Observe(duration.Seconds())
	searchResults.Observe(float64(results))
}

// ObserveBooking records a booking attempt outcome.
func ObserveBooking(outcome string) {
	bookingsTotal.WithLabelValues(outcome).Inc()
}

// ObserveIndexBuild records an index (re)build or snapshot load.
func ObserveIndexBuild(kind, source string, points int, duration time.Duration) {
	indexBuilds.WithLabelValues(kind, source).Inc()
	indexBuildDuration.WithLabelValues(kind).Observe(duration.Seconds())
	indexSize.Set(float64(points))
}

// WriteTextfile writes the registry in Prometheus text format to filename.
func WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, Registry)
}

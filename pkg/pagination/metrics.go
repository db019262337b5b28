package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for pagination runs.
var (
	pagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "course_top_pages_total",
		Help: "Catalog pages processed by outcome",
	}, []string{"outcome"}) // "fetched", "skipped", "hard_stop"

	pageDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "course_top_page_duration_seconds",
		Help:    "Time to fetch and decode a single catalog page",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	coursesCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "course_top_courses_collected_total",
		Help: "Courses appended to the result sink",
	})

	workerStops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "course_top_worker_stops_total",
		Help: "Coordinator loop exits by reason",
	}, []string{"reason"})

	activeWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "course_top_active_workers",
		Help: "Coordinators currently running",
	})
)

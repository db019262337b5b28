package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreErrors tracks Redis operation errors
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_top_store_errors_total",
			Help: "Total number of Redis store operation errors",
		},
		[]string{"operation"}, // "claim", "append", "read", "cleanup"
	)

	// StoredCourses tracks courses pushed to Redis
	StoredCourses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "course_top_store_courses_total",
			Help: "Total number of courses pushed to the Redis sink",
		},
	)
)

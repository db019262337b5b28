package store

import (
	"strings"
)

// KeyPrefix namespaces every key written by the store.
const KeyPrefix = "course-top"

// Key names within a run.
const (
	KeyCounter = "counter"
	KeyCourses = "courses"
)

// RunKey identifies one Redis key of a run.
type RunKey struct {
	// RunID scopes the key to a single run
	RunID string

	// Name is the key within the run (e.g., "counter")
	Name string
}

// String generates the Redis key.
// Format: course-top:<run-id>:<name>
//
// Example:
//
//	course-top:0b6f3c0e-8c1f-4b53-9a55-3f1c2a4d9e10:counter
func (k RunKey) String() string {
	parts := []string{KeyPrefix}

	if runID := strings.Trim(k.RunID, ":"); runID != "" {
		parts = append(parts, runID)
	}
	if k.Name != "" {
		parts = append(parts, k.Name)
	}

	return strings.Join(parts, ":")
}

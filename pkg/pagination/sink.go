package pagination

import (
	"context"
	"sync"

	"github.com/Sternrassler/course-top/pkg/course"
)

// Sink collects courses from all coordinators of a run.
//
// Append may be called concurrently. Courses is only valid once every writer
// has finished, i.e. after Pool.Run returned.
type Sink interface {
	Append(ctx context.Context, courses ...course.Course) error
	Courses(ctx context.Context) ([]course.Course, error)
}

// MemorySink is an in-process append-only Sink.
type MemorySink struct {
	mu      sync.Mutex
	courses []course.Course
}

// NewSink creates an empty in-memory sink.
func NewSink() *MemorySink {
	return &MemorySink{}
}

// Append adds courses to the sink. It never fails.
func (s *MemorySink) Append(_ context.Context, courses ...course.Course) error {
	if len(courses) == 0 {
		return nil
	}

	s.mu.Lock()
	s.courses = append(s.courses, courses...)
	s.mu.Unlock()

	return nil
}

// Courses returns a copy of everything appended so far, in arrival order.
func (s *MemorySink) Courses(_ context.Context) ([]course.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]course.Course, len(s.courses))
	copy(out, s.courses)
	return out, nil
}

// Len returns the number of courses appended so far.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.courses)
}

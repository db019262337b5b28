package pagination

import (
	"context"
	"sync"
	"testing"

	"github.com/Sternrassler/course-top/pkg/course"
)

func TestMemorySink_ConcurrentAppend(t *testing.T) {
	const writers, perWriter = 20, 100

	sink := NewSink()
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				id := int64(w*perWriter + i)
				if err := sink.Append(ctx, course.Course{ID: id, Popularity: i}); err != nil {
					t.Errorf("Append() error = %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	courses, err := sink.Courses(ctx)
	if err != nil {
		t.Fatalf("Courses() error = %v", err)
	}
	if len(courses) != writers*perWriter {
		t.Fatalf("len(courses) = %d, want %d", len(courses), writers*perWriter)
	}

	seen := make(map[int64]bool, len(courses))
	for _, c := range courses {
		if seen[c.ID] {
			t.Errorf("course %d stored twice", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestMemorySink_CoursesReturnsCopy(t *testing.T) {
	sink := NewSink()
	ctx := context.Background()

	_ = sink.Append(ctx, course.Course{ID: 1, Name: "A", Popularity: 5})
	_ = sink.Append(ctx)

	courses, _ := sink.Courses(ctx)
	courses[0].Name = "changed"

	again, _ := sink.Courses(ctx)
	if again[0].Name != "A" {
		t.Errorf("sink content mutated through returned slice: %+v", again[0])
	}
	if sink.Len() != 1 {
		t.Errorf("Len() = %d, want 1", sink.Len())
	}
}

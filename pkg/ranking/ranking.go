// Package ranking orders collected courses by popularity.
package ranking

import (
	"cmp"
	"slices"

	"github.com/Sternrassler/course-top/pkg/course"
)

// Compare orders courses by descending popularity. Ties are broken by
// ascending ID, then by name, so the order does not depend on arrival order.
func Compare(a, b course.Course) int {
	if c := cmp.Compare(b.Popularity, a.Popularity); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

// SelectTop returns the n highest ranked courses. The input is not modified.
// n <= 0 yields an empty slice; n larger than the input yields every course.
func SelectTop(courses []course.Course, n int) []course.Course {
	if n <= 0 || len(courses) == 0 {
		return []course.Course{}
	}

	sorted := slices.Clone(courses)
	slices.SortFunc(sorted, Compare)

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n:n]
}

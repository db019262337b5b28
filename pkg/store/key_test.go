package store

import (
	"testing"
)

func TestRunKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  RunKey
		want string
	}{
		{
			name: "counter key",
			key:  RunKey{RunID: "run-1", Name: KeyCounter},
			want: "course-top:run-1:counter",
		},
		{
			name: "courses key",
			key:  RunKey{RunID: "run-1", Name: KeyCourses},
			want: "course-top:run-1:courses",
		},
		{
			name: "run id with separators trimmed",
			key:  RunKey{RunID: ":run-2:", Name: KeyCounter},
			want: "course-top:run-2:counter",
		},
		{
			name: "prefix only",
			key:  RunKey{},
			want: "course-top",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunKey_DistinctRuns(t *testing.T) {
	a := RunKey{RunID: NewRunID(), Name: KeyCounter}.String()
	b := RunKey{RunID: NewRunID(), Name: KeyCounter}.String()

	if a == b {
		t.Errorf("keys of different runs collide: %q", a)
	}
}

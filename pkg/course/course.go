// Package course defines the catalog records collected during a run and
// decodes catalog pages from their wire format.
package course

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingMeta indicates a page payload without usable pagination metadata.
// Coordinators treat it as the hard-stop signal.
var ErrMissingMeta = errors.New("page has no pagination metadata")

// Course is a single catalog entry. Values are never mutated after decoding.
type Course struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Popularity int    `json:"count"`
}

// Page is the decoded form of one catalog page.
type Page struct {
	HasNext bool
	Courses []Course
}

// wirePage mirrors the catalog JSON. Meta and Courses stay raw until the
// top-level document is known to be valid JSON, so that a badly typed meta
// can be told apart from a body that is not JSON at all.
type wirePage struct {
	Meta    json.RawMessage `json:"meta"`
	Courses json.RawMessage `json:"courses"`
}

type wireMeta struct {
	HasNext any `json:"has_next"`
}

type wireCourse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	LearnersCount int    `json:"learners_count"`
}

// DecodePage parses a catalog page payload.
//
// A payload that is not valid JSON returns a syntax error. Valid JSON
// without a boolean meta.has_next returns ErrMissingMeta, whatever the type
// of the document, of meta or of has_next.
func DecodePage(data []byte) (*Page, error) {
	var wp wirePage
	if err := json.Unmarshal(data, &wp); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("decode page: %w", err)
		}
		return nil, ErrMissingMeta
	}

	hasNext, ok := decodeHasNext(wp.Meta)
	if !ok {
		return nil, ErrMissingMeta
	}

	var items []wireCourse
	if len(wp.Courses) > 0 {
		if err := json.Unmarshal(wp.Courses, &items); err != nil {
			return nil, fmt.Errorf("decode courses: %w", err)
		}
	}

	page := &Page{
		HasNext: hasNext,
		Courses: make([]Course, 0, len(items)),
	}
	for _, c := range items {
		page.Courses = append(page.Courses, Course{
			ID:         c.ID,
			Name:       c.Title,
			Popularity: c.LearnersCount,
		})
	}

	return page, nil
}

// decodeHasNext reports meta.has_next and whether it is a JSON boolean.
func decodeHasNext(raw json.RawMessage) (bool, bool) {
	if len(raw) == 0 {
		return false, false
	}

	var meta wireMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return false, false
	}

	hasNext, ok := meta.HasNext.(bool)
	return hasNext, ok
}

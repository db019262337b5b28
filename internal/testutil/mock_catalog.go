// Package testutil provides testing utilities for the course catalog client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/course-top/pkg/course"
)

// MockCatalogResponse defines the behavior for a mock catalog page response.
type MockCatalogResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCatalog is a configurable mock paginated catalog server.
//
// Pages are selected by the "page" query parameter. Pages without a
// configured response get the fallback response, which defaults to the
// catalog's 404 "Not found." body.
type MockCatalog struct {
	server   *httptest.Server
	mu       sync.RWMutex
	pages    map[int]MockCatalogResponse
	fallback MockCatalogResponse

	// Tracking
	requests          map[int]int
	requestCount      int
	lastRequestHeader http.Header
}

// NewMockCatalog creates a new mock catalog server.
func NewMockCatalog() *MockCatalog {
	mock := &MockCatalog{
		pages:    make(map[int]MockCatalogResponse),
		fallback: NewNotFoundResponse(),
		requests: make(map[int]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))

	return mock
}

// URL returns the mock catalog endpoint.
func (m *MockCatalog) URL() string {
	return m.server.URL + "/api/courses"
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = make(map[int]int)
	m.requestCount = 0
	m.lastRequestHeader = nil
}

// SetPage configures the response for a page number.
func (m *MockCatalog) SetPage(page int, resp MockCatalogResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[page] = resp
}

// SetFallback configures the response for pages without an explicit one.
func (m *MockCatalog) SetFallback(resp MockCatalogResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = resp
}

// SetCatalog configures a complete catalog: one page per element of pages,
// with has_next true on every page but the last.
func (m *MockCatalog) SetCatalog(pages [][]course.Course) {
	for i, courses := range pages {
		m.SetPage(i+1, NewPageResponse(i < len(pages)-1, courses...))
	}
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCatalog) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockCatalog) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// GetPageRequests returns how many times each page was requested.
func (m *MockCatalog) GetPageRequests() map[int]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[int]int, len(m.requests))
	for page, n := range m.requests {
		out[page] = n
	}
	return out
}

func (m *MockCatalog) handle(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}

	m.mu.Lock()
	m.requestCount++
	m.requests[page]++
	m.lastRequestHeader = r.Header.Clone()
	resp, ok := m.pages[page]
	if !ok {
		resp = m.fallback
	}
	m.mu.Unlock()

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

type wireMeta struct {
	Page    int  `json:"page,omitempty"`
	HasNext bool `json:"has_next"`
}

type wireCourse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	LearnersCount int    `json:"learners_count"`
}

// NewPageResponse creates a 200 OK catalog page.
func NewPageResponse(hasNext bool, courses ...course.Course) MockCatalogResponse {
	items := make([]wireCourse, 0, len(courses))
	for _, c := range courses {
		items = append(items, wireCourse{ID: c.ID, Title: c.Name, LearnersCount: c.Popularity})
	}

	body, _ := json.Marshal(struct {
		Meta    wireMeta     `json:"meta"`
		Courses []wireCourse `json:"courses"`
	}{
		Meta:    wireMeta{HasNext: hasNext},
		Courses: items,
	})

	return MockCatalogResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewNotFoundResponse creates the 404 response a catalog returns past its last page.
func NewNotFoundResponse() MockCatalogResponse {
	return MockCatalogResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"detail": "Not found."}`,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewServerErrorResponse creates a 502 response with a non-JSON body.
func NewServerErrorResponse() MockCatalogResponse {
	return MockCatalogResponse{
		StatusCode: http.StatusBadGateway,
		Body:       `<html><body>502 Bad Gateway</body></html>`,
		Headers: map[string]string{
			"Content-Type": "text/html",
		},
	}
}

// NewEmptyResponse creates a 204 response without a body.
func NewEmptyResponse() MockCatalogResponse {
	return MockCatalogResponse{
		StatusCode: http.StatusNoContent,
	}
}

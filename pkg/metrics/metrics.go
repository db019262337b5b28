// Package metrics provides the Prometheus registry and an optional /metrics
// listener for course-top runs. Metrics are defined in their respective
// packages (pagination, client, store) to keep them next to the code that
// updates them.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the default Prometheus registry.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Server exposes /metrics while a run is in progress.
type Server struct {
	srv  *http.Server
	ln   net.Listener
	done chan struct{}
}

// Listen starts serving /metrics on addr (e.g. ":9090" or "127.0.0.1:0").
func Listen(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s := &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln:   ln,
		done: make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", ln.Addr().String()).Msg("Metrics server failed")
		}
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")
	return s, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server and waits for it to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	<-s.done
	return err
}

// Metrics Documentation
//
// Pagination Metrics (pkg/pagination):
//   - course_top_pages_total{outcome} (Counter): Pages by outcome (fetched, skipped, hard_stop)
//   - course_top_page_duration_seconds (Histogram): Fetch + decode time per page
//   - course_top_courses_collected_total (Counter): Courses appended to the sink
//   - course_top_worker_stops_total{reason} (Counter): Coordinator exits (last_page, hard_stop, failures, cancelled, counter)
//   - course_top_active_workers (Gauge): Coordinators currently running
//
// Catalog Client Metrics (pkg/client):
//   - catalog_requests_total{status} (Counter): Requests by HTTP status (or network_error)
//   - catalog_request_duration_seconds (Histogram): Request duration
//   - catalog_errors_total{class} (Counter): Errors by class (client, server, network, body)
//
// Store Metrics (pkg/store):
//   - course_top_store_errors_total{operation} (Counter): Redis errors (claim, append, read, cleanup)
//   - course_top_store_courses_total (Counter): Courses pushed to Redis
//
// Example Prometheus Queries:
//
//   # Skipped page ratio
//   sum(rate(course_top_pages_total{outcome="skipped"}[5m])) / sum(rate(course_top_pages_total[5m]))
//
//   # P95 catalog latency
//   histogram_quantile(0.95, rate(catalog_request_duration_seconds_bucket[5m]))

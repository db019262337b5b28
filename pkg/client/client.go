// Package client provides the HTTP page fetcher for the course catalog with
// bounded timeouts, error classification and request metrics.
package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for catalog client operations.
var (
	catalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total catalog page requests by status",
	}, []string{"status"})

	catalogRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Catalog page request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	catalogErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_errors_total",
		Help: "Total catalog errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the public course catalog endpoint.
const DefaultBaseURL = "https://stepik.org/api/courses"

// maxBodySize caps how much of a page response is read.
const maxBodySize = 16 << 20

// ErrorClass represents a classification of catalog errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassBody represents unreadable or empty response bodies.
	ErrorClassBody ErrorClass = "body"
)

// Client fetches catalog pages over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the paginated endpoint. The page number is sent as the
	// "page" query parameter.
	BaseURL string

	// User-Agent header
	UserAgent string

	// Timeouts applied to each phase of a request
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// Concurrency
	MaxIdleConnsPerHost int // Keep-alive connections reused by workers
}

// DefaultConfig returns a default configuration with 10 second timeouts.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:             DefaultBaseURL,
		UserAgent:           userAgent,
		ConnectTimeout:      10 * time.Second,
		ReadTimeout:         10 * time.Second,
		WriteTimeout:        10 * time.Second,
		MaxIdleConnsPerHost: 10,
	}
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.ConnectTimeout <= 0 || cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be positive")
	}

	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 10
	}

	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			// net/http has no separate write deadline, so the overall
			// request budget covers writing the request.
			Timeout: cfg.ConnectTimeout + cfg.WriteTimeout + cfg.ReadTimeout,
		},
		baseURL: baseURL,
		config:  cfg,
		logger:  log.With().Str("component", "catalog-client").Logger(),
	}, nil
}

// PageURL returns the request URL for a page number.
func (c *Client) PageURL(pageNum int) string {
	u := *c.baseURL
	q := u.Query()
	q.Set("page", strconv.Itoa(pageNum))
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchPage requests a single page and returns its raw body.
//
// Error statuses are not failures on their own: the body is returned so the
// caller can inspect it (a catalog answers pages past the end with a 4xx JSON
// body). Network failures and empty or unreadable bodies are returned as
// *CatalogError.
func (c *Client) FetchPage(ctx context.Context, pageNum int) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		catalogRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PageURL(pageNum), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Int("page", pageNum).
		Str("url", req.URL.String()).
		Msg("Executing catalog request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errClass := c.classifyError(nil, err)
		catalogErrorsTotal.WithLabelValues(string(errClass)).Inc()
		catalogRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, &CatalogError{
			Page:       pageNum,
			ErrorClass: errClass,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	catalogRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		errClass := c.classifyError(resp, nil)
		catalogErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Debug().
			Int("page", pageNum).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Catalog returned error status")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		catalogErrorsTotal.WithLabelValues(string(ErrorClassBody)).Inc()
		return nil, &CatalogError{
			Page:       pageNum,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassBody,
			Message:    "read response body",
			Err:        err,
		}
	}

	if len(body) == 0 {
		catalogErrorsTotal.WithLabelValues(string(ErrorClassBody)).Inc()
		return nil, &CatalogError{
			Page:       pageNum,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassBody,
			Message:    resp.Status,
			Err:        ErrEmptyBody,
		}
	}

	return body, nil
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

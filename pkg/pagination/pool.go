package pagination

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds worker pool configuration.
type Config struct {
	// Workers is the number of coordinators running in parallel.
	Workers int
	// Timeout per page fetch
	Timeout time.Duration
	// MaxConsecutiveFailures stops a coordinator after this many failed
	// fetches in a row. Zero disables the limit.
	MaxConsecutiveFailures int
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		Workers:                10,
		Timeout:                30 * time.Second,
		MaxConsecutiveFailures: 20,
	}
}

// PageFetcher retrieves the raw payload of a single catalog page.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageNum int) ([]byte, error)
}

// Stats summarises a finished run.
type Stats struct {
	Workers      int
	PagesFetched int
	PagesSkipped int
	HardStops    int
	Courses      int
	StopReasons  map[StopReason]int
	Duration     time.Duration
}

// tally is the shared, concurrently updated form of Stats.
type tally struct {
	pagesFetched atomic.Int64
	pagesSkipped atomic.Int64
	hardStops    atomic.Int64
	courses      atomic.Int64
}

// Pool runs a fixed number of coordinators over a shared Counter and Sink.
type Pool struct {
	fetcher PageFetcher
	counter Counter
	sink    Sink
	config  Config
	logger  zerolog.Logger
}

// NewPool creates a pool. Counter and Sink are shared by all coordinators and
// are scoped to a single Run.
func NewPool(fetcher PageFetcher, counter Counter, sink Sink, config Config) *Pool {
	if config.Workers <= 0 {
		config.Workers = 10
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxConsecutiveFailures < 0 {
		config.MaxConsecutiveFailures = 0
	}

	return &Pool{
		fetcher: fetcher,
		counter: counter,
		sink:    sink,
		config:  config,
		logger:  log.With().Str("component", "pagination").Logger(),
	}
}

// Sink returns the sink the pool appends to.
func (p *Pool) Sink() Sink {
	return p.sink
}

// Run starts Workers coordinators and blocks until every one of them has
// stopped. Fetch failures never abort the run; they only show up in Stats.
func (p *Pool) Run(ctx context.Context) Stats {
	start := time.Now()

	p.logger.Info().
		Int("workers", p.config.Workers).
		Msg("Starting parallel page fetch")

	workers := pond.NewPool(p.config.Workers)
	defer workers.StopAndWait()

	var (
		t       tally
		mu      sync.Mutex
		reasons = make(map[StopReason]int)
	)

	group := workers.NewGroup()
	for i := 0; i < p.config.Workers; i++ {
		c := &coordinator{
			id:      i,
			fetcher: p.fetcher,
			counter: p.counter,
			sink:    p.sink,
			config:  p.config,
			tally:   &t,
			logger:  p.logger.With().Int("worker_id", i).Logger(),
		}
		group.Submit(func() {
			reason := c.run(ctx)
			mu.Lock()
			reasons[reason]++
			mu.Unlock()
		})
	}

	if err := group.Wait(); err != nil {
		p.logger.Error().Err(err).Msg("Worker group failed")
	}

	stats := Stats{
		Workers:      p.config.Workers,
		PagesFetched: int(t.pagesFetched.Load()),
		PagesSkipped: int(t.pagesSkipped.Load()),
		HardStops:    int(t.hardStops.Load()),
		Courses:      int(t.courses.Load()),
		StopReasons:  reasons,
		Duration:     time.Since(start),
	}

	p.logger.Info().
		Int("pages", stats.PagesFetched).
		Int("skipped", stats.PagesSkipped).
		Int("hard_stops", stats.HardStops).
		Int("courses", stats.Courses).
		Dur("duration", stats.Duration).
		Msg("Fetch complete")

	return stats
}

package pagination

import (
	"context"
	"errors"
	"time"

	"github.com/Sternrassler/course-top/pkg/client"
	"github.com/Sternrassler/course-top/pkg/course"
	"github.com/rs/zerolog"
)

// StopReason explains why a coordinator left its loop.
type StopReason string

const (
	// StopLastPage means the coordinator fetched a page with has_next=false.
	StopLastPage StopReason = "last_page"

	// StopHardStop means a page had no pagination metadata.
	StopHardStop StopReason = "hard_stop"

	// StopFailures means MaxConsecutiveFailures fetches in a row failed.
	StopFailures StopReason = "failures"

	// StopCancelled means the run context was cancelled.
	StopCancelled StopReason = "cancelled"

	// StopCounter means no page number could be claimed.
	StopCounter StopReason = "counter"
)

// coordinator runs one worker's claim/fetch/append loop.
type coordinator struct {
	id      int
	fetcher PageFetcher
	counter Counter
	sink    Sink
	config  Config
	tally   *tally
	logger  zerolog.Logger
}

// run loops until a stop condition is reached and reports the reason.
func (c *coordinator) run(ctx context.Context) StopReason {
	activeWorkers.Inc()
	defer activeWorkers.Dec()

	pagesProcessed := 0
	failures := 0

	for {
		if ctx.Err() != nil {
			return c.stop(StopCancelled, pagesProcessed)
		}

		pageNum, err := c.counter.ClaimNext(ctx)
		if err != nil {
			c.logger.Error().Err(err).Msg("Failed to claim page number")
			return c.stop(StopCounter, pagesProcessed)
		}

		page, err := c.fetch(ctx, pageNum)
		switch {
		case errors.Is(err, course.ErrMissingMeta):
			pagesTotal.WithLabelValues("hard_stop").Inc()
			c.tally.hardStops.Add(1)
			c.logger.Info().
				Int("page", pageNum).
				Msg("Page has no pagination metadata, stopping worker")
			return c.stop(StopHardStop, pagesProcessed)

		case err != nil:
			pagesTotal.WithLabelValues("skipped").Inc()
			c.tally.pagesSkipped.Add(1)
			failures++
			ev := c.logger.Warn().
				Err(err).
				Int("page", pageNum).
				Int("consecutive_failures", failures)
			var catalogErr *client.CatalogError
			if errors.As(err, &catalogErr) {
				ev = ev.Str("error_class", string(catalogErr.ErrorClass))
			}
			ev.Msg("Page fetch failed, skipping")

			if c.config.MaxConsecutiveFailures > 0 && failures >= c.config.MaxConsecutiveFailures {
				return c.stop(StopFailures, pagesProcessed)
			}
			continue
		}
		failures = 0

		if err := c.sink.Append(ctx, page.Courses...); err != nil {
			pagesTotal.WithLabelValues("skipped").Inc()
			c.tally.pagesSkipped.Add(1)
			c.logger.Warn().
				Err(err).
				Int("page", pageNum).
				Msg("Failed to store page courses, skipping")
		} else {
			pagesTotal.WithLabelValues("fetched").Inc()
			coursesCollected.Add(float64(len(page.Courses)))
			c.tally.pagesFetched.Add(1)
			c.tally.courses.Add(int64(len(page.Courses)))
			pagesProcessed++

			c.logger.Debug().
				Int("page", pageNum).
				Int("courses", len(page.Courses)).
				Bool("has_next", page.HasNext).
				Msg("Page fetched")

			// Progress logging every 50 pages
			if fetched := c.tally.pagesFetched.Load(); fetched%50 == 0 {
				c.logger.Info().
					Int64("fetched", fetched).
					Int64("courses", c.tally.courses.Load()).
					Msg("Fetch progress")
			}
		}

		if !page.HasNext {
			return c.stop(StopLastPage, pagesProcessed)
		}
	}
}

// fetch retrieves and decodes a single page under the per-page timeout.
func (c *coordinator) fetch(ctx context.Context, pageNum int) (*course.Page, error) {
	start := time.Now()
	defer func() {
		pageDuration.Observe(time.Since(start).Seconds())
	}()

	pageCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	data, err := c.fetcher.FetchPage(pageCtx, pageNum)
	if err != nil {
		return nil, err
	}

	return course.DecodePage(data)
}

func (c *coordinator) stop(reason StopReason, pagesProcessed int) StopReason {
	workerStops.WithLabelValues(string(reason)).Inc()
	c.logger.Debug().
		Str("reason", string(reason)).
		Int("pages_processed", pagesProcessed).
		Msg("Worker stopped")
	return reason
}

// Command course-top fetches every page of the course catalog in parallel and
// prints the N most popular courses as JSON.
//
// Usage:
//
//	course-top N
//
// Configuration is read from the environment (CATALOG_URL, WORKERS,
// HTTP_TIMEOUT, MAX_CONSECUTIVE_FAILURES, LOG_LEVEL, LOG_PRETTY,
// METRICS_ADDR, REDIS_URL, PROGRESS, USER_AGENT).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Sternrassler/course-top/pkg/client"
	"github.com/Sternrassler/course-top/pkg/course"
	"github.com/Sternrassler/course-top/pkg/logging"
	"github.com/Sternrassler/course-top/pkg/metrics"
	"github.com/Sternrassler/course-top/pkg/pagination"
	"github.com/Sternrassler/course-top/pkg/progress"
	"github.com/Sternrassler/course-top/pkg/ranking"
	"github.com/Sternrassler/course-top/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// parseErrorMessage is printed when N is missing or not an integer.
const parseErrorMessage = "Couldn't parse integer argument."

var errInvalidArgument = errors.New("expected exactly one integer argument")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, env func(string) string, stdout, stderr io.Writer) int {
	n, err := parseTopN(args)
	if err != nil {
		fmt.Fprintln(stderr, parseErrorMessage)
		return 1
	}

	cfg, err := loadConfig(env)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: stderr,
	})
	logger := logging.NewLogger("cli")

	top := []course.Course{}
	if n > 0 {
		courses, err := collect(ctx, cfg, logger, stderr)
		if err != nil {
			logger.Error().Err(err).Int("top", n).Msg("Run failed")
			fmt.Fprintf(stderr, "Failed to collect courses: %v\n", err)
			return 1
		}
		top = ranking.SelectTop(courses, n)
	}

	if err := writeJSON(stdout, top); err != nil {
		fmt.Fprintf(stderr, "Failed to write result: %v\n", err)
		return 1
	}

	return 0
}

// parseTopN parses the single positional argument.
func parseTopN(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errInvalidArgument
	}

	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errInvalidArgument, err)
	}
	return n, nil
}

// collect runs the pagination pool and returns every collected course.
// The progress indicator, the metrics listener and the Redis run keys are
// released on every return path.
func collect(ctx context.Context, cfg config, logger zerolog.Logger, stderr io.Writer) ([]course.Course, error) {
	catalog, err := client.New(cfg.clientConfig())
	if err != nil {
		return nil, fmt.Errorf("create catalog client: %w", err)
	}
	defer catalog.Close()

	var (
		counter pagination.Counter = pagination.NewCounter()
		sink    pagination.Sink    = pagination.NewSink()
	)

	if cfg.RedisURL != "" {
		redisClient, err := newRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}

		runStore := store.New(redisClient, store.NewRunID())
		counter, sink = runStore.Counter(), runStore.Sink()

		defer func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			closeErr := multierr.Append(runStore.Cleanup(cleanupCtx), redisClient.Close())
			if closeErr != nil {
				logger.Warn().Err(closeErr).Str("run_id", runStore.RunID()).Msg("Failed to release run store")
			}
		}()

		logger.Info().Str("run_id", runStore.RunID()).Msg("Using Redis run store")
	}

	if cfg.MetricsAddr != "" {
		srv, err := metrics.Listen(cfg.MetricsAddr)
		if err != nil {
			return nil, err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("Failed to stop metrics server")
			}
		}()
	}

	stopProgress := func() {}
	if cfg.Progress {
		progressCfg := progress.DefaultConfig()
		progressCfg.Output = stderr
		stopProgress = progress.Start(ctx, progressCfg)
	}
	defer stopProgress()

	pool := pagination.NewPool(catalog, counter, sink, cfg.poolConfig())
	stats := pool.Run(ctx)
	stopProgress()

	logger.Info().
		Int("pages", stats.PagesFetched).
		Int("skipped", stats.PagesSkipped).
		Int("courses", stats.Courses).
		Dur("duration", stats.Duration).
		Msg("Catalog collected")

	// A cancelled run leaves a partial sink; ranking it would print a wrong top N.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run interrupted: %w", err)
	}

	return pool.Sink().Courses(ctx)
}

// newRedisClient accepts either a redis:// URL or a host:port address.
func newRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	}

	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	return redisClient, nil
}

// writeJSON pretty-prints the ranked courses.
func writeJSON(w io.Writer, courses []course.Course) error {
	data, err := json.MarshalIndent(courses, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal courses: %w", err)
	}
	data = append(data, '\n')

	_, err = w.Write(data)
	return err
}

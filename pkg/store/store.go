// Package store provides a Redis-backed page counter and result sink so that
// several processes can cooperate on the same run.
//
// All keys of a run live under course-top:<run-id>: and carry a TTL. Cleanup
// removes them once the run has been ranked; nothing is kept between runs.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/course-top/pkg/course"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTTL bounds how long run keys survive a crashed process.
const DefaultTTL = 24 * time.Hour

// Store holds the Redis state of one run.
type Store struct {
	redis  *redis.Client
	runID  string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// New creates a store for runID. Processes sharing a run ID share the
// counter and the sink.
func New(redisClient *redis.Client, runID string) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if runID == "" {
		runID = NewRunID()
	}

	return &Store{
		redis:  redisClient,
		runID:  runID,
		ttl:    DefaultTTL,
		logger: log.With().Str("component", "store").Str("run_id", runID).Logger(),
	}
}

// RunID returns the run identifier.
func (s *Store) RunID() string {
	return s.runID
}

// Counter returns the run's shared page counter.
func (s *Store) Counter() *Counter {
	return &Counter{store: s, key: RunKey{RunID: s.runID, Name: KeyCounter}.String()}
}

// Sink returns the run's shared result sink.
func (s *Store) Sink() *Sink {
	return &Sink{store: s, key: RunKey{RunID: s.runID, Name: KeyCourses}.String()}
}

// Cleanup deletes every key of the run.
func (s *Store) Cleanup(ctx context.Context) error {
	keys := []string{
		RunKey{RunID: s.runID, Name: KeyCounter}.String(),
		RunKey{RunID: s.runID, Name: KeyCourses}.String(),
	}

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		StoreErrors.WithLabelValues("cleanup").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	s.logger.Debug().Strs("keys", keys).Msg("Run keys removed")
	return nil
}

// Counter is a page counter backed by Redis INCR.
type Counter struct {
	store *Store
	key   string
}

// ClaimNext atomically increments the run counter and returns the new value,
// starting at 1.
func (c *Counter) ClaimNext(ctx context.Context) (int, error) {
	pipe := c.store.redis.TxPipeline()
	incr := pipe.Incr(ctx, c.key)
	pipe.Expire(ctx, c.key, c.store.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		StoreErrors.WithLabelValues("claim").Inc()
		return 0, fmt.Errorf("redis incr: %w", err)
	}

	return int(incr.Val()), nil
}

// Sink is an append-only course list backed by a Redis list.
type Sink struct {
	store *Store
	key   string
}

// Append pushes courses to the run list in a single RPUSH.
func (s *Sink) Append(ctx context.Context, courses ...course.Course) error {
	if len(courses) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(courses))
	for _, c := range courses {
		data, err := json.Marshal(c)
		if err != nil {
			StoreErrors.WithLabelValues("append").Inc()
			return fmt.Errorf("marshal course %d: %w", c.ID, err)
		}
		values = append(values, data)
	}

	pipe := s.store.redis.TxPipeline()
	pipe.RPush(ctx, s.key, values...)
	pipe.Expire(ctx, s.key, s.store.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		StoreErrors.WithLabelValues("append").Inc()
		return fmt.Errorf("redis rpush: %w", err)
	}

	StoredCourses.Add(float64(len(courses)))
	return nil
}

// Courses reads back every stored course in push order.
func (s *Sink) Courses(ctx context.Context) ([]course.Course, error) {
	items, err := s.store.redis.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		StoreErrors.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	courses := make([]course.Course, 0, len(items))
	for i, item := range items {
		var c course.Course
		if err := json.Unmarshal([]byte(item), &c); err != nil {
			StoreErrors.WithLabelValues("read").Inc()
			return nil, fmt.Errorf("unmarshal course at %d: %w", i, err)
		}
		courses = append(courses, c)
	}

	return courses, nil
}

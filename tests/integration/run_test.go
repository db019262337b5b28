package integration

import (
	"context"
	"testing"
	"time"

	"github.com/Sternrassler/course-top/internal/testutil"
	"github.com/Sternrassler/course-top/pkg/client"
	"github.com/Sternrassler/course-top/pkg/course"
	"github.com/Sternrassler/course-top/pkg/pagination"
	"github.com/Sternrassler/course-top/pkg/ranking"
	"github.com/Sternrassler/course-top/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newCatalogClient(t *testing.T, baseURL string) *client.Client {
	t.Helper()

	cfg := client.DefaultConfig("course-top-integration/1.0")
	cfg.BaseURL = baseURL
	cfg.ConnectTimeout = 2 * time.Second
	cfg.ReadTimeout = 2 * time.Second
	cfg.WriteTimeout = 2 * time.Second

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return c
}

// buildCatalog returns pages pages of size courses each, with popularity
// equal to the course ID.
func buildCatalog(pages, size int) [][]course.Course {
	out := make([][]course.Course, 0, pages)
	id := int64(1)
	for p := 0; p < pages; p++ {
		page := make([]course.Course, 0, size)
		for i := 0; i < size; i++ {
			page = append(page, course.Course{ID: id, Name: "course", Popularity: int(id)})
			id++
		}
		out = append(out, page)
	}
	return out
}

// TestFullRun tests the complete flow: Redis counter → catalog → Redis sink → ranking.
func TestFullRun(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.SetCatalog(buildCatalog(25, 4))

	ctx := context.Background()
	runStore := store.New(redisClient, store.NewRunID())
	defer runStore.Cleanup(ctx)

	pool := pagination.NewPool(
		newCatalogClient(t, mock.URL()),
		runStore.Counter(),
		runStore.Sink(),
		pagination.Config{Workers: 8, Timeout: 5 * time.Second, MaxConsecutiveFailures: 5},
	)

	stats := pool.Run(ctx)
	if stats.PagesFetched != 25 {
		t.Errorf("PagesFetched = %d, want 25", stats.PagesFetched)
	}

	courses, err := runStore.Sink().Courses(ctx)
	if err != nil {
		t.Fatalf("Courses() error = %v", err)
	}
	if len(courses) != 100 {
		t.Fatalf("stored %d courses, want 100", len(courses))
	}

	top := ranking.SelectTop(courses, 3)
	for i, wantID := range []int64{100, 99, 98} {
		if top[i].ID != wantID {
			t.Errorf("top[%d].ID = %d, want %d", i, top[i].ID, wantID)
		}
	}

	for page, n := range mock.GetPageRequests() {
		if page <= 25 && n != 1 {
			t.Errorf("page %d requested %d times, want 1", page, n)
		}
	}
}

// TestSharedRun verifies that two pools on the same run ID split the pages.
func TestSharedRun(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.SetCatalog(buildCatalog(30, 2))

	ctx := context.Background()
	runID := store.NewRunID()
	first := store.New(redisClient, runID)
	second := store.New(redisClient, runID)
	defer first.Cleanup(ctx)

	cfg := pagination.Config{Workers: 3, Timeout: 5 * time.Second, MaxConsecutiveFailures: 5}
	pools := []*pagination.Pool{
		pagination.NewPool(newCatalogClient(t, mock.URL()), first.Counter(), first.Sink(), cfg),
		pagination.NewPool(newCatalogClient(t, mock.URL()), second.Counter(), second.Sink(), cfg),
	}

	results := make(chan pagination.Stats, len(pools))
	for _, p := range pools {
		go func(p *pagination.Pool) {
			results <- p.Run(ctx)
		}(p)
	}

	fetched := 0
	for range pools {
		fetched += (<-results).PagesFetched
	}
	if fetched != 30 {
		t.Errorf("pages fetched across pools = %d, want 30", fetched)
	}

	courses, err := second.Sink().Courses(ctx)
	if err != nil {
		t.Fatalf("Courses() error = %v", err)
	}
	if len(courses) != 60 {
		t.Errorf("stored %d courses, want 60", len(courses))
	}
}

// TestCleanupRemovesRunKeys verifies no run state survives Cleanup.
func TestCleanupRemovesRunKeys(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	runStore := store.New(redisClient, store.NewRunID())

	if _, err := runStore.Counter().ClaimNext(ctx); err != nil {
		t.Fatalf("ClaimNext() error = %v", err)
	}
	if err := runStore.Sink().Append(ctx, course.Course{ID: 1, Name: "A", Popularity: 1}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := runStore.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	keys, err := redisClient.Keys(ctx, store.KeyPrefix+":"+runStore.RunID()+":*").Result()
	if err != nil {
		t.Fatalf("KEYS error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("keys left after cleanup: %v", keys)
	}
}

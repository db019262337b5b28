// Package progress prints a lightweight "still working" indicator while a run
// is in progress.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Config holds indicator configuration.
type Config struct {
	// Interval between two dots
	Interval time.Duration
	// Output receives the indicator (default: os.Stderr)
	Output io.Writer
	// Message printed before the dots
	Message string
}

// DefaultConfig returns the default indicator configuration.
func DefaultConfig() Config {
	return Config{
		Interval: 500 * time.Millisecond,
		Output:   os.Stderr,
		Message:  "Waiting",
	}
}

// Start runs the indicator in the background until ctx is cancelled or the
// returned stop function is called. Stop blocks until the indicator has
// written its final newline and is safe to call more than once, so callers
// should defer it right away.
func Start(ctx context.Context, cfg Config) (stop func()) {
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		run(ctx, cfg)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

func run(ctx context.Context, cfg Config) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	var line strings.Builder
	line.WriteString("\r")
	line.WriteString(cfg.Message)

	for {
		line.WriteString(".")
		fmt.Fprint(cfg.Output, line.String())

		select {
		case <-ctx.Done():
			fmt.Fprint(cfg.Output, "\n")
			return
		case <-ticker.C:
		}
	}
}

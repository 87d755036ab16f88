package resource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned for a single record larger than the
// whole queue budget.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds the limits of one build. Zero values mean unlimited, except
// MaxWorkers which defaults to 1.
type Config struct {
	MaxWorkers         int64
	MemoryLimitBytes   int64
	IOLimitBytesPerSec int64
}

// Controller hands out worker slots and queue memory and paces reads.
type Controller struct {
	cfg     Config
	workers *semaphore.Weighted
	queue   *semaphore.Weighted
	queued  atomic.Int64
	io      *rate.Limiter
}

// NewController creates a controller for cfg.
func NewController(cfg Config) *Controller {
	cfg.MaxWorkers = max(cfg.MaxWorkers, 1)
	c := &Controller{cfg: cfg, workers: semaphore.NewWeighted(cfg.MaxWorkers)}
	if cfg.MemoryLimitBytes > 0 {
		c.queue = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.io = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// MaxWorkers returns the number of worker slots.
func (c *Controller) MaxWorkers() int {
	if c == nil {
		return 1
	}
	return int(c.cfg.MaxWorkers)
}

// Worker blocks until a worker slot is free and returns its release func.
func (c *Controller) Worker(ctx context.Context) (func(), error) {
	if c == nil {
		return func() {}, nil
	}
	if err := c.workers.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { c.workers.Release(1) }, nil
}

// Reserve blocks until n bytes of queued records fit into the budget and
// returns a release func that may be called more than once.
func (c *Controller) Reserve(ctx context.Context, n int64) (func(), error) {
	if c == nil || n <= 0 {
		return func() {}, nil
	}
	if c.queue != nil {
		if n > c.cfg.MemoryLimitBytes {
			return nil, fmt.Errorf("%w: record of %d bytes, budget %d", ErrMemoryLimitExceeded, n, c.cfg.MemoryLimitBytes)
		}
		if err := c.queue.Acquire(ctx, n); err != nil {
			return nil, err
		}
	}
	c.queued.Add(n)

	var once sync.Once
	return func() {
		once.Do(func() {
			if c.queue != nil {
				c.queue.Release(n)
			}
			c.queued.Add(-n)
		})
	}, nil
}

// Queued returns the bytes currently reserved.
func (c *Controller) Queued() int64 {
	if c == nil {
		return 0
	}
	return c.queued.Load()
}

// waitIO blocks until the read limit allows n bytes.
func (c *Controller) waitIO(ctx context.Context, n int) error {
	if c == nil || c.io == nil || n <= 0 {
		return nil
	}
	return c.io.WaitN(ctx, n)
}

// ioBurst returns the largest single read, or 0 if unlimited.
func (c *Controller) ioBurst() int {
	if c == nil || c.io == nil {
		return 0
	}
	return c.io.Burst()
}

package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation would exceed the
// cache memory budget.
var ErrMemoryLimitExceeded = errors.New("resource: memory limit exceeded")

// Config holds resource limits. Zero values mean unlimited, except
// MaxUploads which defaults to 4.
type Config struct {
	// MemoryLimitBytes caps memory held by payload caches.
	MemoryLimitBytes int64

	// MaxUploads caps concurrent snapshot transfers.
	MaxUploads int64

	// IOLimitBytesPerSec caps compaction copy throughput.
	IOLimitBytesPerSec int64
}

// DefaultMaxUploads is used when Config.MaxUploads is zero.
const DefaultMaxUploads = 4

// Controller enforces a Config.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	uploads *semaphore.Weighted

	io *rate.Limiter
}

// NewController creates a controller for cfg.
func NewController(cfg Config) *Controller {
	if cfg.MaxUploads <= 0 {
		cfg.MaxUploads = DefaultMaxUploads
	}

	c := &Controller{
		cfg:     cfg,
		uploads: semaphore.NewWeighted(cfg.MaxUploads),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.io = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireMemory reserves bytes without blocking. It returns
// ErrMemoryLimitExceeded when the budget is exhausted.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return ErrMemoryLimitExceeded
	}

	c.memUsed.Add(bytes)

	return nil
}

// ReleaseMemory returns bytes reserved by AcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}

	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the bytes currently reserved.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}

	return c.memUsed.Load()
}

// MemoryLimit returns the memory budget, or 0 if unlimited.
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}

	return c.cfg.MemoryLimitBytes
}

// AcquireUpload blocks until an upload slot is free or ctx is done.
func (c *Controller) AcquireUpload(ctx context.Context) error {
	if c == nil {
		return nil
	}

	return c.uploads.Acquire(ctx, 1)
}

// ReleaseUpload frees a slot taken by AcquireUpload.
func (c *Controller) ReleaseUpload() {
	if c == nil {
		return
	}

	c.uploads.Release(1)
}

// AcquireIO waits until bytes of I/O may proceed. Requests larger than one
// second of budget are admitted in burst-sized steps.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.io == nil {
		return nil
	}

	burst := c.io.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.io.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}

	return nil
}

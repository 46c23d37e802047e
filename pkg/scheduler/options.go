package scheduler

import (
	"io"
	"log/slog"
)

// defaultResultChannelCapacity balances buffering against memory, per the
// spec's backpressure discussion: large enough to absorb ordinary bursts,
// small enough that a persistently stuck sink makes itself known quickly.
const defaultResultChannelCapacity = 128

// config holds TaskManager configuration assembled from Options.
type config struct {
	logger         *slog.Logger
	maxConcurrency int
	channelCap     int
	onExhausted    func(jobName string, err error)
}

func newConfig() *config {
	return &config{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		channelCap: defaultResultChannelCapacity,
	}
}

// Option configures a TaskManager.
type Option func(*config)

// WithLogger sets the logger used by the task manager, its scheduler
// generations, and the drain goroutine. If not set, a noop logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxConcurrency sets the system-wide semaphore size shared by every
// job loop. n <= 0 defaults to the host's logical CPU count.
func WithMaxConcurrency(n int) Option {
	return func(c *config) {
		c.maxConcurrency = n
	}
}

// WithChannelCapacity overrides the result channel's buffer size. n <= 0
// is ignored.
func WithChannelCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.channelCap = n
		}
	}
}

// WithExhaustionHook registers a callback invoked whenever a firing
// exhausts its retry budget without producing an outcome. The callback
// runs inline in the firing's own detached goroutine, after its semaphore
// permit has been scheduled for release — it must not block meaningfully,
// and its own failures must not be allowed to affect scheduler control
// flow (this is an observability hook, not a second retry mechanism).
func WithExhaustionHook(fn func(jobName string, err error)) Option {
	return func(c *config) {
		c.onExhausted = fn
	}
}

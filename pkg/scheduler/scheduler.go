package scheduler

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// retryBackoff is the fixed delay between retry attempts within a single
// firing. Fixed, not exponential: commands here are cron-driven periodic
// fetches, so the next cron firing is already the long-horizon retry; the
// in-attempt retry only needs to ride out transient network blips.
const retryBackoff = 5 * time.Second

// Scheduler owns a live, immutable set of jobs. It spawns one independent
// timing loop per job so that a slow command on one job never delays
// another job's next firing, bounds system-wide concurrency with a single
// semaphore shared across all loops, and exposes a non-blocking Stop that
// broadcasts shutdown to every loop via a closed channel.
type Scheduler struct {
	jobs []*Job
	sem  *semaphore.Weighted
	// shutdown is closed exactly once by Stop; every loop selects on it
	// alongside its timer, which is the idiomatic Go substitute for
	// tokio::sync::Notify's broadcast-to-all-waiters semantics.
	shutdown chan struct{}
	// shutdownCtx is canceled in lockstep with shutdown being closed, so
	// that a loop parked in sem.Acquire (suspension point #3) observes
	// shutdown too, rather than only the timer/shutdown select below.
	shutdownCtx context.Context
	cancel      context.CancelFunc
	stopOnce    sync.Once
	logger      *slog.Logger
	onExhausted func(jobName string, err error)
}

// NewScheduler builds a Scheduler over jobs. maxConcurrency <= 0 defaults
// to the host's logical CPU count. onExhausted, if non-nil, is invoked
// (from the firing's own goroutine) after a firing's retry budget is fully
// exhausted; it must not block significantly since it runs inline with
// the semaphore permit still held.
func NewScheduler(jobs []*Job, maxConcurrency int, logger *slog.Logger, onExhausted func(jobName string, err error)) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		jobs:        jobs,
		sem:         semaphore.NewWeighted(int64(maxConcurrency)),
		shutdown:    make(chan struct{}),
		shutdownCtx: ctx,
		cancel:      cancel,
		logger:      logger,
		onExhausted: onExhausted,
	}
}

// Jobs returns the scheduler's immutable job set, for diagnostics.
func (s *Scheduler) Jobs() []*Job {
	return s.jobs
}

// Run spawns one timing loop per job and returns once all loops are
// spawned; it does not block on them.
func (s *Scheduler) Run(resultCh chan<- TaskOutcome) {
	for _, job := range s.jobs {
		go s.runJobLoop(job, resultCh)
	}
}

// runJobLoop is the central per-job algorithm: wait for the next cron
// instant (recomputed every iteration, so missed firings are never
// coalesced into a catch-up storm), acquire a semaphore permit, and spawn
// a detached attempt — the loop itself never blocks on the attempt, so a
// slow command never delays this job's own next firing.
func (s *Scheduler) runJobLoop(job *Job, resultCh chan<- TaskOutcome) {
	for {
		now := time.Now()
		next := job.Schedule.Next(now)
		if next.IsZero() {
			s.logger.Warn("job has no further firings, exiting loop", slog.String("job", job.Name))
			return
		}

		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)

		select {
		case <-timer.C:
			if err := s.sem.Acquire(s.shutdownCtx, 1); err != nil {
				s.logger.Info("job loop shutdown while awaiting permit", slog.String("job", job.Name))
				return
			}

			go func() {
				defer s.sem.Release(1)
				s.executeWithRetry(job, resultCh)
			}()

		case <-s.shutdown:
			timer.Stop()
			s.logger.Info("job loop shutdown", slog.String("job", job.Name))
			return
		}
	}
}

// executeWithRetry runs job.Action up to RetryBudget+1 times. A success
// sends exactly one TaskOutcome on resultCh (suspending if the channel is
// full — the scheduler's backpressure device) and stops; a failure that
// exhausts the budget emits nothing.
func (s *Scheduler) executeWithRetry(job *Job, resultCh chan<- TaskOutcome) {
	ctx := context.Background()
	job.recordFire(time.Now())

	var lastErr error
	for attempt := 0; attempt <= job.RetryBudget; attempt++ {
		bundle, err := job.Action(ctx)
		if err == nil {
			outcome := TaskOutcome{JobName: job.Name, Payload: &bundle}
			resultCh <- outcome
			return
		}

		lastErr = err
		s.logger.Warn("job attempt failed",
			slog.String("job", job.Name),
			slog.Int("attempt", attempt+1),
			slog.Int("retry_budget", job.RetryBudget),
			slog.Any("error", err),
		)

		if attempt < job.RetryBudget {
			time.Sleep(retryBackoff)
		}
	}

	s.logger.Error("job exhausted retry budget, no outcome emitted",
		slog.String("job", job.Name),
		slog.Int("attempts", job.RetryBudget+1),
		slog.Any("error", lastErr),
	)

	if s.onExhausted != nil {
		s.onExhausted(job.Name, lastErr)
	}
}

// Stop signals every job loop to exit at its next suspension point.
// Non-blocking: in-flight attempts are not cancelled, they complete or
// fail on their own and release their permit; Stop does not await loop
// exit.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.shutdown)
		s.cancel()
	})
}

package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cronpipe/pkg/scheduler"
)

func everySecond(t *testing.T) string {
	t.Helper()
	return "*/1 * * * * * *"
}

func newTestJob(t *testing.T, name, cronExpr string, retryBudget int, action func(context.Context) (scheduler.ResultBundle, error)) *scheduler.Job {
	t.Helper()
	registry := scheduler.NewCommandRegistry()
	registry.Register("cmd", func(ctx context.Context, in scheduler.CommandInput) (scheduler.ResultBundle, error) {
		return action(ctx)
	})
	jobs := scheduler.BuildJobs([]scheduler.JobSpec{
		{Name: name, CronExpr: cronExpr, CommandName: "cmd", RetryBudget: retryBudget},
	}, registry, nil, slog.Default())
	require.Len(t, jobs, 1)
	return jobs[0]
}

// 1. Per-job isolation: a slow job must never delay an unrelated job's
// next firing (the single-loop serialization bug spec.md explicitly
// guards against).
func TestScheduler_PerJobIsolation(t *testing.T) {
	var fastCount atomic.Int64

	slow := newTestJob(t, "slow", everySecond(t), 0, func(ctx context.Context) (scheduler.ResultBundle, error) {
		time.Sleep(3 * time.Second)
		return scheduler.ResultBundle{}, nil
	})
	fast := newTestJob(t, "fast", everySecond(t), 0, func(ctx context.Context) (scheduler.ResultBundle, error) {
		fastCount.Add(1)
		return scheduler.ResultBundle{}, nil
	})

	sched := scheduler.NewScheduler([]*scheduler.Job{slow, fast}, 4, slog.Default(), nil)
	resultCh := make(chan scheduler.TaskOutcome, 128)
	go func() {
		for range resultCh {
		}
	}()

	sched.Run(resultCh)
	defer sched.Stop()

	time.Sleep(10 * time.Second)

	assert.GreaterOrEqual(t, fastCount.Load(), int64(9))
}

// 2. Concurrency bound: at most maxConcurrency command invocations are
// ever in flight simultaneously.
func TestScheduler_ConcurrencyBound(t *testing.T) {
	const maxConcurrency = 2
	var inFlight atomic.Int64
	var maxObserved atomic.Int64

	action := func(ctx context.Context) (scheduler.ResultBundle, error) {
		n := inFlight.Add(1)
		for {
			cur := maxObserved.Load()
			if n <= cur || maxObserved.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(500 * time.Millisecond)
		inFlight.Add(-1)
		return scheduler.ResultBundle{}, nil
	}

	var jobs []*scheduler.Job
	for i := range 5 {
		jobs = append(jobs, newTestJob(t, fmt.Sprintf("job-%d", i), everySecond(t), 0, action))
	}

	sched := scheduler.NewScheduler(jobs, maxConcurrency, slog.Default(), nil)
	resultCh := make(chan scheduler.TaskOutcome, 128)
	go func() {
		for range resultCh {
		}
	}()

	sched.Run(resultCh)
	defer sched.Stop()

	time.Sleep(3 * time.Second)

	assert.LessOrEqual(t, maxObserved.Load(), int64(maxConcurrency))
}

// 3. Retry budget: a command scripted to always fail emits zero outcomes
// and attempts exactly RetryBudget+1 times per firing.
func TestScheduler_RetryBudgetExhausted(t *testing.T) {
	const retryBudget = 2
	var attempts atomic.Int64

	job := newTestJob(t, "always-fails", everySecond(t), retryBudget, func(ctx context.Context) (scheduler.ResultBundle, error) {
		attempts.Add(1)
		return nil, errors.New("boom")
	})

	var exhausted atomic.Int64
	sched := scheduler.NewScheduler([]*scheduler.Job{job}, 4, slog.Default(), func(jobName string, err error) {
		exhausted.Add(1)
	})
	resultCh := make(chan scheduler.TaskOutcome, 128)
	received := 0
	done := make(chan struct{})
	go func() {
		for range resultCh {
			received++
		}
		close(done)
	}()

	sched.Run(resultCh)

	// Wait for exactly one firing's worth of attempts: retryBudget backoffs
	// of 5s each plus a little slack, but bail out as soon as one full
	// exhaustion cycle (retryBudget+1 attempts) has happened.
	deadline := time.After(13 * time.Second)
	for exhausted.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for retry budget exhaustion")
		case <-time.After(50 * time.Millisecond):
		}
	}

	sched.Stop()
	close(resultCh)
	<-done

	assert.Equal(t, 0, received, "an exhausted firing must emit no outcome")
	assert.GreaterOrEqual(t, attempts.Load(), int64(retryBudget+1))
}

// 4. Retry success: a command that fails k < retryBudget times then
// succeeds emits exactly one outcome for that firing.
func TestScheduler_RetrySucceedsAfterFailures(t *testing.T) {
	const retryBudget = 3
	var attempts atomic.Int64

	job := newTestJob(t, "eventually-succeeds", everySecond(t), retryBudget, func(ctx context.Context) (scheduler.ResultBundle, error) {
		n := attempts.Add(1)
		if n <= 2 {
			return nil, errors.New("transient")
		}
		return scheduler.ResultBundle{"mon": {{Health: &scheduler.HealthResult{URL: "u"}}}}, nil
	})

	sched := scheduler.NewScheduler([]*scheduler.Job{job}, 4, slog.Default(), nil)
	resultCh := make(chan scheduler.TaskOutcome, 128)

	sched.Run(resultCh)
	defer sched.Stop()

	select {
	case outcome := <-resultCh:
		assert.Equal(t, "eventually-succeeds", outcome.JobName)
		require.NotNil(t, outcome.Payload)
	case <-time.After(15 * time.Second):
		t.Fatal("timed out waiting for outcome")
	}

	assert.Equal(t, int64(3), attempts.Load())
}

// 7. Shutdown clean-up: Stop causes every job loop to exit promptly and
// does not leak goroutines spawning further firings.
func TestScheduler_StopHaltsFurtherFirings(t *testing.T) {
	var count atomic.Int64
	job := newTestJob(t, "ticking", everySecond(t), 0, func(ctx context.Context) (scheduler.ResultBundle, error) {
		count.Add(1)
		return scheduler.ResultBundle{}, nil
	})

	sched := scheduler.NewScheduler([]*scheduler.Job{job}, 4, slog.Default(), nil)
	resultCh := make(chan scheduler.TaskOutcome, 128)
	go func() {
		for range resultCh {
		}
	}()

	sched.Run(resultCh)
	time.Sleep(2500 * time.Millisecond)
	sched.Stop()

	after := count.Load()
	time.Sleep(2 * time.Second)

	assert.Equal(t, after, count.Load(), "no further firings should occur after Stop")
}

// 7b. Shutdown while parked at the semaphore: a loop blocked in Acquire
// (suspension point #3) must observe Stop and exit without spawning one
// more firing once a permit frees up.
func TestScheduler_StopUnblocksLoopParkedAtAcquire(t *testing.T) {
	release := make(chan struct{})
	var blockerStarted, spawnedAfterStop atomic.Int64

	blocker := newTestJob(t, "blocker", everySecond(t), 0, func(ctx context.Context) (scheduler.ResultBundle, error) {
		blockerStarted.Add(1)
		<-release
		return scheduler.ResultBundle{}, nil
	})
	contender := newTestJob(t, "contender", everySecond(t), 0, func(ctx context.Context) (scheduler.ResultBundle, error) {
		spawnedAfterStop.Add(1)
		return scheduler.ResultBundle{}, nil
	})

	// maxConcurrency=1: once blocker's firing holds the only permit,
	// contender's loop parks in sem.Acquire on every subsequent tick.
	sched := scheduler.NewScheduler([]*scheduler.Job{blocker, contender}, 1, slog.Default(), nil)
	resultCh := make(chan scheduler.TaskOutcome, 128)
	go func() {
		for range resultCh {
		}
	}()

	sched.Run(resultCh)

	deadline := time.After(3 * time.Second)
	for blockerStarted.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("blocker never started")
		case <-time.After(20 * time.Millisecond):
		}
	}

	// Give contender's loop time to reach its own tick and park at Acquire.
	time.Sleep(1200 * time.Millisecond)

	sched.Stop()
	spawnedAtStop := spawnedAfterStop.Load()

	// Free the permit; if contender's loop were still parked in Acquire
	// with a non-cancelable context, it would spawn exactly one more
	// firing here before ever observing shutdown.
	close(release)
	time.Sleep(1500 * time.Millisecond)

	assert.Equal(t, spawnedAtStop, spawnedAfterStop.Load(),
		"a loop parked at Acquire must observe Stop and exit instead of spawning one more firing")
}

// 10. Backpressure: with a full channel, a producing job loop suspends at
// send rather than dropping the outcome.
func TestScheduler_Backpressure(t *testing.T) {
	job := newTestJob(t, "producer", everySecond(t), 0, func(ctx context.Context) (scheduler.ResultBundle, error) {
		return scheduler.ResultBundle{}, nil
	})

	sched := scheduler.NewScheduler([]*scheduler.Job{job}, 1, slog.Default(), nil)
	resultCh := make(chan scheduler.TaskOutcome, 1) // capacity 1: second outcome must block

	sched.Run(resultCh)
	defer sched.Stop()

	// Let two firings happen; the channel holds one, the sender of the
	// second is blocked at send until we drain.
	time.Sleep(2500 * time.Millisecond)

	select {
	case <-resultCh:
	default:
		t.Fatal("expected at least one outcome to have been buffered")
	}

	// Draining one slot must unblock the backed-up sender within one
	// more firing interval.
	select {
	case <-resultCh:
	case <-time.After(3 * time.Second):
		t.Fatal("backed-up outcome was never delivered after drain")
	}
}

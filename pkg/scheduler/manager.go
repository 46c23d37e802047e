package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// CatalogReader is the external collaborator the TaskManager reads job
// specs from, on Start and on every Refresh. Ordering is preserved in the
// returned slice. Implementations may page internally; the scheduler
// never pages.
type CatalogReader interface {
	ListAll(ctx context.Context) ([]JobSpec, error)
}

// JobDescriptor is a diagnostic snapshot of one live job.
type JobDescriptor struct {
	Name         string
	CronExpr     string
	LastFireTime *time.Time
	NextFireTime *time.Time
}

// TaskManager is the process-wide supervisor: it reads specs from the
// catalog, (re)builds the scheduler, wires the result channel to a drain
// goroutine, and exposes Refresh to atomically swap the live generation.
// It holds the one-and-only scheduler handle behind a read-write lock.
type TaskManager struct {
	catalog  CatalogReader
	registry *CommandRegistry
	sink     ResultSink
	shared   SharedContext
	logger   *slog.Logger

	maxConcurrency int
	channelCap     int
	onExhausted    func(jobName string, err error)

	mu      sync.RWMutex
	started bool
	current *Scheduler

	resultCh chan TaskOutcome
}

// NewTaskManager builds a TaskManager. catalog, registry, and sink must be
// non-nil; shared is passed through to every command invocation opaquely.
func NewTaskManager(catalog CatalogReader, registry *CommandRegistry, sink ResultSink, shared SharedContext, opts ...Option) *TaskManager {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &TaskManager{
		catalog:        catalog,
		registry:       registry,
		sink:           sink,
		shared:         shared,
		logger:         cfg.logger,
		maxConcurrency: cfg.maxConcurrency,
		channelCap:     cfg.channelCap,
		onExhausted:    cfg.onExhausted,
	}
}

// Start reads the catalog, builds the scheduler generation, starts the
// long-lived drain goroutine bound to a bounded result channel, and spawns
// the scheduler's job loops. It is not idempotent: calling Start twice
// returns ErrAlreadyStarted.
func (m *TaskManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}

	sched, err := m.buildScheduler(ctx)
	if err != nil {
		return err
	}

	m.resultCh = make(chan TaskOutcome, m.channelCap)
	go m.drain()

	m.current = sched
	m.started = true
	sched.Run(m.resultCh)

	m.logger.Info("task manager started",
		slog.Int("jobs", len(sched.Jobs())),
		slog.Int("max_concurrency", m.maxConcurrency),
	)

	return nil
}

// Refresh is the hot-reload operation: it stops the running generation,
// re-reads the catalog, and installs a freshly built generation, all
// serialized under the write lock so concurrent Refresh calls are safe.
// The result channel and drain goroutine are not recreated — only the
// scheduler-internal job set and shutdown notifier are replaced — so
// outcomes from the outgoing generation's in-flight attempts are not
// lost; they are delivered to the same drain that serves the new
// generation. Refresh does not await the outgoing generation's loop
// goroutines before returning: they exit at their own next suspension
// point, per the documented decision in DESIGN.md.
func (m *TaskManager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}

	if m.current != nil {
		m.current.Stop()
		m.current = nil
	}

	sched, err := m.buildScheduler(ctx)
	if err != nil {
		return err
	}

	m.current = sched
	sched.Run(m.resultCh)

	m.logger.Info("task manager refreshed", slog.Int("jobs", len(sched.Jobs())))

	return nil
}

// Stop signals the current generation's job loops to exit. It does not
// stop the drain goroutine; outcomes already in flight are still
// delivered. Safe to call without a prior Start (a no-op in that case).
func (m *TaskManager) Stop() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current != nil {
		m.current.Stop()
	}
}

// Describe returns a diagnostic snapshot of every job in the live
// generation, or nil if the manager has not started.
func (m *TaskManager) Describe() []JobDescriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return nil
	}

	now := time.Now()
	jobs := m.current.Jobs()
	descs := make([]JobDescriptor, 0, len(jobs))
	for _, j := range jobs {
		next := j.Schedule.Next(now)
		desc := JobDescriptor{Name: j.Name, CronExpr: j.CronExpr, NextFireTime: &next}
		if last, ok := j.LastFireTime(); ok {
			desc.LastFireTime = &last
		}
		descs = append(descs, desc)
	}
	return descs
}

func (m *TaskManager) buildScheduler(ctx context.Context) (*Scheduler, error) {
	specs, err := m.catalog.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	jobs := BuildJobs(specs, m.registry, m.shared, m.logger)
	return NewScheduler(jobs, m.maxConcurrency, m.logger, m.onExhausted), nil
}

// drain repeatedly receives TaskOutcome values and, for each item in the
// bundle, spawns a detached writer that invokes the matching ResultSink
// method. Writer errors are logged, never propagated: an error persisting
// one item must not suppress the rest of the bundle. An unexpected panic
// inside drain itself is treated as fatal to the scheduler generation, per
// spec: it is logged, the drain goroutine is restarted against the same
// channel, and the task manager re-initializes the scheduler generation.
func (m *TaskManager) drain() {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("drain panic, restarting drain and re-initializing scheduler", slog.Any("panic", r))
			go m.drain()
			go func() {
				if err := m.Refresh(context.Background()); err != nil {
					m.logger.Error("failed to refresh after drain panic", slog.Any("error", err))
				}
			}()
		}
	}()

	for outcome := range m.resultCh {
		m.dispatch(outcome)
	}
}

func (m *TaskManager) dispatch(outcome TaskOutcome) {
	if outcome.Payload == nil {
		return
	}

	for _, items := range *outcome.Payload {
		for _, item := range items {
			item := item
			go func() {
				defer func() {
					if r := recover(); r != nil {
						m.logger.Error("sink writer panic",
							slog.String("job", outcome.JobName),
							slog.String("variant", item.Variant()),
							slog.Any("panic", r),
						)
					}
				}()

				if err := item.Dispatch(context.Background(), m.sink); err != nil {
					m.logger.Error("sink error",
						slog.String("job", outcome.JobName),
						slog.String("variant", item.Variant()),
						slog.Any("error", err),
					)
				}
			}()
		}
	}
}

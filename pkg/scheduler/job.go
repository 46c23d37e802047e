package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser parses the first six of the seven fields ParseCron accepts:
// sec min hour day-of-month month day-of-week. ParseCron checks the
// seventh (year) field itself. A five-field expression fails to parse
// rather than being silently reinterpreted as six-field-with-seconds —
// cron.Descriptor ("@hourly" etc.) is intentionally not accepted either,
// keeping the surface to exactly what JobSpec.CronExpr documents.
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseCron parses a seven-field cron expression with seconds precision
// (sec min hour day-of-month month day-of-week year). The year field
// accepts only "*"; any other year value is rejected with ErrInvalidCron.
func ParseCron(expr string) (cron.Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 7 {
		return nil, fmt.Errorf("%w: %q: expected 7 fields, found %d", ErrInvalidCron, expr, len(fields))
	}
	if fields[6] != "*" {
		return nil, fmt.Errorf("%w: %q: year field must be *", ErrInvalidCron, expr)
	}
	sched, err := cronParser.Parse(strings.Join(fields[:6], " "))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidCron, expr, err)
	}
	return sched, nil
}

// JobSpec is immutable configuration for one scheduled job, typically read
// from a CatalogReader.
type JobSpec struct {
	// Name must be unique within a scheduler generation.
	Name string
	// CronExpr is a seven-field cron expression with seconds precision.
	CronExpr string
	// CommandName is looked up in the CommandRegistry at build time.
	CommandName string
	// Argument is an opaque string passed to the command unchanged.
	Argument string
	// RetryBudget is the number of retries after the first attempt: up to
	// RetryBudget+1 total tries per firing.
	RetryBudget int
}

// Job is the runtime counterpart of a JobSpec: its cron expression has
// already been parsed, and its action has already been bound to a
// resolved command (or a sentinel failure if the command was unknown).
// Jobs are immutable after construction and shared by pointer between the
// Scheduler and each spawned loop.
type Job struct {
	Name        string
	CronExpr    string
	Schedule    cron.Schedule
	Action      func(ctx context.Context) (ResultBundle, error)
	RetryBudget int

	lastFire atomic.Pointer[time.Time]
}

// LastFireTime reports the start time of the most recent firing, or the
// zero Time if the job has not fired yet. Safe for concurrent use.
func (j *Job) LastFireTime() (time.Time, bool) {
	t := j.lastFire.Load()
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}

func (j *Job) recordFire(at time.Time) {
	j.lastFire.Store(&at)
}

// BuildJobs turns a list of JobSpecs into a list of runnable Jobs by
// resolving each spec's command against registry and capturing shared.
// A spec with an invalid cron expression is skipped with a logged error;
// the builder continues with the remaining specs so that one bad row
// never prevents the rest of the catalog from running. A spec whose
// command name is absent from the registry is not skipped: it is
// materialized with a sentinel action that always fails with
// ErrUnknownCommand, so the job still fires on schedule and the
// misconfiguration stays observable in logs rather than silently
// vanishing from the catalog.
func BuildJobs(specs []JobSpec, registry *CommandRegistry, shared SharedContext, logger *slog.Logger) []*Job {
	if logger == nil {
		logger = slog.Default()
	}

	jobs := make([]*Job, 0, len(specs))
	for _, spec := range specs {
		schedule, err := ParseCron(spec.CronExpr)
		if err != nil {
			logger.Error("skipping job with invalid cron expression",
				slog.String("job", spec.Name),
				slog.String("cron", spec.CronExpr),
				slog.Any("error", err),
			)
			continue
		}

		jobs = append(jobs, &Job{
			Name:        spec.Name,
			CronExpr:    spec.CronExpr,
			Schedule:    schedule,
			Action:      buildAction(spec, registry, shared),
			RetryBudget: spec.RetryBudget,
		})
	}

	return jobs
}

func buildAction(spec JobSpec, registry *CommandRegistry, shared SharedContext) func(context.Context) (ResultBundle, error) {
	cmd, ok := registry.Lookup(spec.CommandName)
	if !ok {
		name, cmdName := spec.Name, spec.CommandName
		return func(context.Context) (ResultBundle, error) {
			return nil, fmt.Errorf("%w: command %q not found for job %q", ErrUnknownCommand, cmdName, name)
		}
	}

	argument := spec.Argument
	return func(ctx context.Context) (ResultBundle, error) {
		return cmd(ctx, CommandInput{Argument: argument, Shared: shared})
	}
}

package scheduler

import "errors"

// Scheduler errors.
var (
	// ErrInvalidCron is returned when a JobSpec's cron expression fails to
	// parse. The spec is skipped, not fatal to the rest of the catalog.
	ErrInvalidCron = errors.New("scheduler: invalid cron expression")

	// ErrUnknownCommand marks a job whose command name is absent from the
	// registry. The job still fires on schedule; every attempt fails with
	// this error wrapped with the job and command names.
	ErrUnknownCommand = errors.New("scheduler: unknown command")

	// ErrEmptyResultItem is returned by ResultItem.Dispatch when none of
	// the variant fields are set.
	ErrEmptyResultItem = errors.New("scheduler: result item has no variant set")

	// ErrCatalogUnavailable wraps a CatalogReader.ListAll failure.
	ErrCatalogUnavailable = errors.New("scheduler: catalog unavailable")

	// ErrAlreadyStarted is returned by TaskManager.Start when called twice.
	ErrAlreadyStarted = errors.New("scheduler: task manager already started")

	// ErrNotStarted is returned by TaskManager.Refresh before Start.
	ErrNotStarted = errors.New("scheduler: task manager not started")
)

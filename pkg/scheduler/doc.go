// Package scheduler is a dynamic cron-driven task scheduler with a result
// pipeline. It materializes a set of named, cron-scheduled jobs from a
// [CatalogReader], fires each job independently and concurrently on its own
// cron cadence, executes each firing through a [CommandRegistry] with bounded
// system-wide parallelism and per-job retry, and streams every successful
// outcome to a [ResultSink] that fans results out by payload variant.
//
// # Architecture
//
// Five pieces, leaf-first:
//
//   - [CommandRegistry]: name -> async command lookup.
//   - [ResultSink]: one method per [ResultItem] variant.
//   - [BuildJobs]: turns [JobSpec]s into runnable [Job]s.
//   - [Scheduler]: owns the live job set, a concurrency semaphore, and a
//     shutdown notifier; spawns one timing loop per job.
//   - [TaskManager]: process-wide supervisor. Reads the catalog, (re)builds
//     the scheduler, and wires the result channel to a drain goroutine.
//
// # Live reconfiguration
//
// [TaskManager.Refresh] stops the running scheduler generation and rebuilds
// it from the catalog without restarting the process or losing outcomes in
// transit: the result channel and drain goroutine are long-lived across
// generations, only the scheduler-internal job set and shutdown notifier are
// replaced.
//
// # Example
//
//	registry := scheduler.NewCommandRegistry()
//	registry.Register("health_check", healthCheckCommand)
//
//	tm := scheduler.NewTaskManager(catalog, registry, sink, shared,
//	    scheduler.WithLogger(logger),
//	    scheduler.WithMaxConcurrency(8),
//	)
//	if err := tm.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer tm.Stop()
package scheduler

// Package sink provides scheduler.ResultSink implementations: QueueSink,
// which hands every result off to a durable River-backed queue instead of
// persisting inline from the drain goroutine, and Archiving, a decorator
// that additionally snapshots each result to object storage.
package sink

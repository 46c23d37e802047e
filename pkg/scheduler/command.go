package scheduler

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// SharedContext is an opaque handle carrying whatever shared resources
// commands need to do their work (e.g. a database pool for commands that
// read persisted state). The scheduler never inspects its contents; it is
// captured at job-build time and passed through to every command
// invocation unchanged.
type SharedContext any

// CommandInput is the argument passed to every registered command.
type CommandInput struct {
	// Argument is an opaque string the job's JobSpec carries (e.g. a URL,
	// a comma-separated list, a query). The scheduler never parses it.
	Argument string

	// Shared is the process-wide SharedContext captured at build time.
	Shared SharedContext
}

// CommandFunc is the signature every registered command must satisfy.
type CommandFunc func(ctx context.Context, in CommandInput) (ResultBundle, error)

// CommandRegistry is a read-only, concurrency-safe mapping from command
// name to [CommandFunc]. It is built once at process start and shared; it
// is not mutated once jobs have been built against it, though Register may
// be called safely from any goroutine before that point.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[string]CommandFunc
}

// NewCommandRegistry returns an empty registry ready for Register calls.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{commands: make(map[string]CommandFunc)}
}

// Register adds or replaces the command under name.
func (r *CommandRegistry) Register(name string, fn CommandFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = fn
}

// Lookup returns the command registered under name, if any. Total, pure,
// O(1); a lookup miss is not an error of the registry itself — the caller
// (JobBuilder) decides what to do with the absence.
func (r *CommandRegistry) Lookup(name string) (CommandFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.commands[name]
	return fn, ok
}

// Names returns every registered command name, for diagnostics.
func (r *CommandRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Collect(maps.Keys(r.commands))
}

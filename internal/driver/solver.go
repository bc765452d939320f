package driver

import (
	"context"

	"github.com/sambuddhac/powersim/internal/model"
)

// FeedforwardUpdate is one synchronized directive surfaced to the solver
// before a tick: which input it affects, the substitution kind, the source
// problem whose results feed it, and the visibility window.
type FeedforwardUpdate struct {
	// Key identifies the affected downstream input.
	Key model.FeedforwardKey

	// Kind selects the substitution semantics.
	Kind model.FeedforwardKind

	// Source is the upstream problem supplying the value.
	Source string

	// Chronology is the pair chronology governing which source periods are
	// visible (e.g. the last N periods for a synchronize window).
	Chronology model.Chronology

	// SourceTick is the global tick of the source's newest completed run.
	SourceTick int64
}

// Solver executes one problem instance at its resolved initial time. The
// numerical model behind a solve is entirely external to the sequencer.
//
// Implementations must honor ctx cancellation; a returned error aborts the
// whole run.
type Solver interface {
	Solve(ctx context.Context, p model.Problem, updates []FeedforwardUpdate) error
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, p model.Problem, updates []FeedforwardUpdate) error

// Solve implements Solver.
func (f SolverFunc) Solve(ctx context.Context, p model.Problem, updates []FeedforwardUpdate) error {
	return f(ctx, p, updates)
}

// Recorder persists execution records. Implemented by the sqlite store;
// tests use in-memory recorders. A nil Recorder on the driver disables
// persistence.
type Recorder interface {
	RecordExecution(ctx context.Context, rec model.ExecutionRecord) error
}

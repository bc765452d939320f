// Package sequence computes and validates the scheduling contract for a
// chain of interdependent optimization problems running at different time
// resolutions.
//
// ARCHITECTURE:
//
// Construction is a single atomic step. NewSimulationSequence normalizes
// intervals, checks that every problem has an interval entry, validates
// feedforward chronologies and cache scopes, downgrades the initial-condition
// chronology for single-problem sequences, resolves the execution order,
// tallies per-problem execution counts, mints a UUID, and stamps it onto
// every owned problem. It either returns a fully built, immutable sequence
// or an error - never a partial value.
//
// Execution-order convention (parent-after-children): one execution of
// problem k expands to ratio[k+1] full expansions of problem k+1 followed by
// k's own tick. For a 24h/1h pair the order is 24 fine ticks and then the
// coarse tick. A downstream problem consuming upstream feedforward therefore
// sees the upstream result from the previous top-level step.
//
// DETERMINISM:
//
// Resolution is pure integer arithmetic over the declared problem order.
// Identical inputs produce identical execution orders and run counts; only
// the minted UUID differs between constructions. The sequence is safe for
// concurrent inspection while a driver advances the execution index - that
// single field is guarded, everything else is read-only after construction.
package sequence

// Package driver steps a validated SimulationSequence through its ticks.
//
// The driver is single-threaded and synchronous by design: downstream
// problems may consume upstream results from the immediately preceding tick,
// so ticks form a strict total order and cannot be parallelized without
// breaking the feedforward contract.
//
// Tick processing, per tick of steps x len(order):
//  1. Look up the tick's problem from the execution order.
//  2. Resolve its initial time from the simulation start, the step offset,
//     and the problem's own run counter for this step (not the global tick).
//  3. Collect feedforward updates targeting the problem whose sources have
//     newer results, with the visibility window from the pair chronology.
//  4. Invoke the external solve and record the outcome.
//
// A failed solve aborts the remaining ticks of the run; there is no retry at
// this layer. The sequence's execution index is advanced only after a tick
// fully completes, so an aborted run leaves it at the last successful tick.
package driver

package driver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sambuddhac/powersim/internal/model"
	"github.com/sambuddhac/powersim/internal/observability"
	"github.com/sambuddhac/powersim/internal/sequence"
)

// Config assembles a simulation run. Sequence, Problems, Solver, Steps, and
// InitialTime are required; Recorder and Metrics are optional collaborators.
type Config struct {
	Sequence    *sequence.SimulationSequence
	Problems    []model.Problem
	Solver      Solver
	Steps       int
	InitialTime time.Time
	Recorder    Recorder
	Metrics     *observability.DriverCollector
	Clock       *Clock // optional; used for resuming from a known seq
}

// Driver walks the sequence's execution order for the configured number of
// steps, resolving initial times and surfacing feedforward updates.
type Driver struct {
	seq      *sequence.SimulationSequence
	problems map[string]model.Problem
	solver   Solver
	steps    int
	start    time.Time
	recorder Recorder
	metrics  *observability.DriverCollector
	clock    *Clock

	// lastRun maps problem name to the global tick of its newest completed
	// run. Drives feedforward "newer results" visibility.
	lastRun map[string]int64
}

// New builds a driver and runs the build-time consistency checks that need
// the total step count (sync-window feasibility, problem connectivity).
// Construction fails rather than producing a driver for an unrunnable
// simulation.
func New(cfg Config) (*Driver, error) {
	if cfg.Sequence == nil {
		return nil, fmt.Errorf("driver: sequence is required")
	}
	if cfg.Solver == nil {
		return nil, fmt.Errorf("driver: solver is required")
	}
	if cfg.InitialTime.IsZero() {
		return nil, fmt.Errorf("driver: initial time is required")
	}

	if err := cfg.Sequence.ValidateForSteps(cfg.Steps); err != nil {
		return nil, fmt.Errorf("driver: sequence cannot run %d steps: %w", cfg.Steps, err)
	}

	problems := make(map[string]model.Problem, len(cfg.Problems))
	for _, p := range cfg.Problems {
		problems[model.NormalizeName(p.Name())] = p
	}
	for _, name := range cfg.Sequence.ProblemNames() {
		p, ok := problems[name]
		if !ok {
			return nil, fmt.Errorf("driver: sequence problem %q was not supplied", name)
		}
		if p.SequenceUUID() != cfg.Sequence.UUID() {
			return nil, fmt.Errorf("driver: problem %q belongs to sequence %q, not %q",
				name, p.SequenceUUID(), cfg.Sequence.UUID())
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = NewClock()
	}

	return &Driver{
		seq:      cfg.Sequence,
		problems: problems,
		solver:   cfg.Solver,
		steps:    cfg.Steps,
		start:    cfg.InitialTime,
		recorder: cfg.Recorder,
		metrics:  cfg.Metrics,
		clock:    clock,
		lastRun:  make(map[string]int64, len(cfg.Problems)),
	}, nil
}

// Run executes steps x len(order) ticks. Must be called from exactly one
// goroutine; all mutation happens here.
//
// On the first failed solve the remaining ticks are abandoned and the error
// (wrapping the solver's) is returned. Records already written for completed
// ticks are retained - the log is append-only and never rolled back.
func (d *Driver) Run(ctx context.Context) error {
	order := d.seq.ExecutionOrder()
	slog.Info("simulation run starting",
		"sequence", d.seq.UUID(),
		"steps", d.steps,
		"ticks_per_step", len(order),
	)

	var globalTick int64
	for step := 1; step <= d.steps; step++ {
		runsThisStep := make(map[string]int64, len(d.problems))
		stepStart := d.start.Add(time.Duration(step-1) * d.seq.StepResolution())

		for _, idx := range order {
			if err := ctx.Err(); err != nil {
				slog.Info("simulation run cancelled",
					"sequence", d.seq.UUID(),
					"completed_ticks", d.seq.CurrentExecutionIndex(),
				)
				return fmt.Errorf("run aborted at tick %d: %w", globalTick+1, err)
			}

			globalTick++
			name := d.seq.ProblemName(idx)
			if err := d.tick(ctx, name, globalTick, step, stepStart, runsThisStep); err != nil {
				return err
			}
			runsThisStep[name]++
			d.lastRun[name] = globalTick
			d.seq.AdvanceExecutionIndex()
		}

		d.metrics.SetCurrentStep(step)
		slog.Debug("simulation step complete", "sequence", d.seq.UUID(), "step", step)
	}

	slog.Info("simulation run complete",
		"sequence", d.seq.UUID(),
		"ticks", globalTick,
	)
	return nil
}

// tick runs one execution: resolve the initial time, surface feedforward
// updates, solve, and record the outcome.
func (d *Driver) tick(ctx context.Context, name string, globalTick int64, step int, stepStart time.Time, runsThisStep map[string]int64) error {
	p := d.problems[name]
	interval, _ := d.seq.Interval(name)

	// The problem's own counter, not the global tick, advances its clock.
	initialTime := stepStart.Add(time.Duration(runsThisStep[name]) * interval)
	p.SetInitialTime(initialTime)

	updates := d.feedforwardUpdates(name)

	slog.Debug("tick",
		"sequence", d.seq.UUID(),
		"global_tick", globalTick,
		"problem", name,
		"initial_time", initialTime,
		"feedforwards", len(updates),
	)

	solveStart := time.Now()
	solveErr := d.solver.Solve(ctx, p, updates)
	d.metrics.ObserveSolve(name, time.Since(solveStart))

	status := model.StatusOK
	if solveErr != nil {
		status = model.StatusFailed
	}
	d.metrics.IncTick(name, string(status))

	if err := d.record(ctx, globalTick, step, name, initialTime, status); err != nil {
		return err
	}

	if solveErr != nil {
		slog.Error("solve failed, aborting run",
			"sequence", d.seq.UUID(),
			"global_tick", globalTick,
			"problem", name,
			"error", solveErr,
		)
		return fmt.Errorf("solve %s at tick %d: %w", name, globalTick, solveErr)
	}
	return nil
}

// feedforwardUpdates collects the directives targeting a problem whose
// source has results newer than the target's own last run.
func (d *Driver) feedforwardUpdates(target string) []FeedforwardUpdate {
	directives := d.seq.Feedforwards(target)
	if len(directives) == 0 {
		return nil
	}

	// Deterministic update order: sources in table order (ChronologySources
	// guarantees this), directives sorted by key.
	keys := make([]model.FeedforwardKey, 0, len(directives))
	for key := range directives {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	var updates []FeedforwardUpdate
	for _, source := range d.seq.ChronologySources(target) {
		sourceTick := d.lastRun[source]
		if sourceTick == 0 || sourceTick <= d.lastRun[target] {
			continue // no newer results from this source
		}
		chron, _ := d.seq.FeedforwardChronology(source, target)
		for _, key := range keys {
			updates = append(updates, FeedforwardUpdate{
				Key:        key,
				Kind:       directives[key].Kind,
				Source:     source,
				Chronology: chron,
				SourceTick: sourceTick,
			})
		}
	}
	return updates
}

func (d *Driver) record(ctx context.Context, globalTick int64, step int, name string, initialTime time.Time, status model.ExecutionStatus) error {
	if d.recorder == nil {
		return nil
	}
	rec, err := model.NewExecutionRecord(d.seq.UUID(), globalTick, step, name, initialTime, status, d.clock.Next())
	if err != nil {
		return fmt.Errorf("tick %d: %w", globalTick, err)
	}
	if err := d.recorder.RecordExecution(ctx, rec); err != nil {
		return fmt.Errorf("record tick %d: %w", globalTick, err)
	}
	return nil
}

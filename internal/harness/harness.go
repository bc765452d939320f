package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/sambuddhac/powersim/internal/driver"
	"github.com/sambuddhac/powersim/internal/model"
	"github.com/sambuddhac/powersim/internal/sequence"
)

// simulationStart anchors every scenario run at the same instant so traces
// and golden files are reproducible.
var simulationStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TickEvent is one solved tick in a scenario run.
type TickEvent struct {
	GlobalTick  int64
	Step        int
	Problem     string
	InitialTime time.Time
	Updates     int // feedforward updates visible at this tick
}

// Result holds the outcome of running a scenario.
type Result struct {
	// Sequence is the built sequence, nil when the build failed.
	Sequence *sequence.SimulationSequence

	// BuildErr is the construction or validation failure, if any.
	// Scenarios with expect_error assert on this.
	BuildErr error

	// Trace lists every solved tick in order, empty for plan-only scenarios.
	Trace []TickEvent
}

// staticUUIDSource gives every scenario run the same sequence identity so
// results compare byte-for-byte.
type staticUUIDSource struct{ id string }

func (s staticUUIDSource) Generate() string { return s.id }

// Run builds the scenario's sequence and, when Steps > 0, drives its
// execution order with a recording solver. Build and validation failures land
// in Result.BuildErr rather than the error return: scenarios assert on them.
func Run(s *Scenario) (*Result, error) {
	seq, problems, err := build(s)
	if err != nil {
		return &Result{BuildErr: err}, nil
	}

	result := &Result{Sequence: seq}
	if s.Steps <= 0 {
		return result, nil
	}

	solver := driver.SolverFunc(func(_ context.Context, p model.Problem, updates []driver.FeedforwardUpdate) error {
		result.Trace = append(result.Trace, TickEvent{
			GlobalTick:  int64(seq.CurrentExecutionIndex() + 1),
			Step:        currentStep(seq, s.Steps),
			Problem:     p.Name(),
			InitialTime: p.InitialTime(),
			Updates:     len(updates),
		})
		return nil
	})

	d, err := driver.New(driver.Config{
		Sequence:    seq,
		Problems:    problems,
		Solver:      solver,
		Steps:       s.Steps,
		InitialTime: simulationStart,
	})
	if err != nil {
		result.BuildErr = err
		return result, nil
	}

	if err := d.Run(context.Background()); err != nil {
		return nil, fmt.Errorf("scenario %s: run failed: %w", s.Name, err)
	}

	return result, nil
}

// currentStep derives the step for the tick about to be solved from the
// execution index. Valid because the driver advances steps in order.
func currentStep(seq *sequence.SimulationSequence, steps int) int {
	orderLen := len(seq.ExecutionOrder())
	step := seq.CurrentExecutionIndex()/orderLen + 1
	if step > steps {
		step = steps
	}
	return step
}

func build(s *Scenario) (*sequence.SimulationSequence, []model.Problem, error) {
	problems := make([]model.Problem, len(s.Problems))
	entries := make([]sequence.IntervalEntry, len(s.Problems))
	for i, decl := range s.Problems {
		problems[i] = model.NewOperationsProblem(decl.Name, decl.Horizon)

		interval, err := time.ParseDuration(decl.Interval)
		if err != nil {
			return nil, nil, fmt.Errorf("problem %s: %w", decl.Name, err)
		}
		chron, err := parseChronologySpec(decl.Chronology)
		if err != nil {
			return nil, nil, fmt.Errorf("problem %s: %w", decl.Name, err)
		}
		entries[i] = sequence.IntervalEntry{
			Problem:    decl.Name,
			Interval:   interval,
			Chronology: chron,
		}
	}

	opts := []sequence.Option{
		sequence.WithUUIDSource(staticUUIDSource{id: "scenario-" + s.Name}),
	}

	if len(s.Chronologies) > 0 {
		chrons := make(map[model.ChronologyPair]model.Chronology, len(s.Chronologies))
		for _, decl := range s.Chronologies {
			chron, err := parseChronologySpec(decl.Chronology)
			if err != nil {
				return nil, nil, fmt.Errorf("chronology %s->%s: %w", decl.Source, decl.Target, err)
			}
			chrons[model.NewChronologyPair(decl.Source, decl.Target)] = chron
		}
		opts = append(opts, sequence.WithFeedforwardChronologies(chrons))
	}

	if len(s.Feedforwards) > 0 {
		ffs := make(map[model.FeedforwardKey]model.Feedforward, len(s.Feedforwards))
		for _, decl := range s.Feedforwards {
			key := model.NewFeedforwardKey(decl.Target, decl.Category, decl.Component)
			ffs[key] = model.Feedforward{Kind: model.FeedforwardKind(decl.Kind)}
		}
		opts = append(opts, sequence.WithFeedforwards(ffs))
	}

	seq, err := sequence.NewSimulationSequence(problems, entries, opts...)
	if err != nil {
		return nil, nil, err
	}
	return seq, problems, nil
}

// Verify checks a scenario result against its expectation clause.
// Returns the first mismatch found, nil if everything holds.
func Verify(s *Scenario, r *Result) error {
	if s.ExpectError != "" {
		if r.BuildErr == nil {
			return fmt.Errorf("expected configuration error %s, build succeeded", s.ExpectError)
		}
		code := string(sequence.ConfigCodeOf(r.BuildErr))
		if code != s.ExpectError {
			return fmt.Errorf("expected configuration error %s, got %s (%v)", s.ExpectError, code, r.BuildErr)
		}
		return nil
	}

	if r.BuildErr != nil {
		return fmt.Errorf("unexpected build failure: %w", r.BuildErr)
	}

	seq := r.Sequence
	e := s.Expect
	order := seq.ExecutionOrder()

	if e.OrderLength > 0 && len(order) != e.OrderLength {
		return fmt.Errorf("order length: expected %d, got %d", e.OrderLength, len(order))
	}

	if e.StepResolution != "" {
		want, err := time.ParseDuration(e.StepResolution)
		if err != nil {
			return fmt.Errorf("invalid expected step_resolution %q", e.StepResolution)
		}
		if got := seq.StepResolution(); got != want {
			return fmt.Errorf("step resolution: expected %s, got %s", want, got)
		}
	}

	if len(e.Executions) > 0 {
		got := seq.ExecutionsByProblem()
		for name, want := range e.Executions {
			if got[name] != want {
				return fmt.Errorf("executions[%s]: expected %d, got %d", name, want, got[name])
			}
		}
	}

	if len(e.OrderPrefix) > 0 {
		if len(order) < len(e.OrderPrefix) {
			return fmt.Errorf("order prefix: order has only %d entries", len(order))
		}
		for i, want := range e.OrderPrefix {
			if order[i] != want {
				return fmt.Errorf("order[%d]: expected %d, got %d", i, want, order[i])
			}
		}
	}

	if len(e.OrderSuffix) > 0 {
		if len(order) < len(e.OrderSuffix) {
			return fmt.Errorf("order suffix: order has only %d entries", len(order))
		}
		offset := len(order) - len(e.OrderSuffix)
		for i, want := range e.OrderSuffix {
			if order[offset+i] != want {
				return fmt.Errorf("order[%d]: expected %d, got %d", offset+i, want, order[offset+i])
			}
		}
	}

	if e.TotalTicks > 0 && len(r.Trace) != e.TotalTicks {
		return fmt.Errorf("total ticks: expected %d, got %d", e.TotalTicks, len(r.Trace))
	}

	return nil
}

package compiler

import (
	"fmt"

	"github.com/sambuddhac/powersim/internal/model"
	"github.com/sambuddhac/powersim/internal/sequence"
)

// BuildProblems constructs the problem set in declaration order.
// Each call returns fresh problems; building a sequence stamps identity onto
// them, so compiled portfolios stay reusable.
func (p *Portfolio) BuildProblems() []model.Problem {
	problems := make([]model.Problem, len(p.Problems))
	for i, decl := range p.Problems {
		problems[i] = model.NewOperationsProblem(decl.Name, decl.Horizon)
	}
	return problems
}

// Intervals returns the interval-table entries in declaration order.
func (p *Portfolio) Intervals() []sequence.IntervalEntry {
	entries := make([]sequence.IntervalEntry, len(p.Problems))
	for i, decl := range p.Problems {
		entries[i] = sequence.IntervalEntry{
			Problem:    decl.Name,
			Interval:   decl.Interval,
			Chronology: decl.Chronology,
		}
	}
	return entries
}

// Options returns the sequence options implied by the portfolio.
func (p *Portfolio) Options() []sequence.Option {
	opts := []sequence.Option{
		sequence.WithInitialConditionChronology(p.InitialConditionChronology),
	}
	if len(p.Feedforwards) > 0 {
		opts = append(opts, sequence.WithFeedforwards(p.Feedforwards))
	}
	if len(p.Chronologies) > 0 {
		opts = append(opts, sequence.WithFeedforwardChronologies(p.Chronologies))
	}
	if len(p.Caches) > 0 {
		opts = append(opts, sequence.WithCaches(p.Caches...))
	}
	return opts
}

// BuildSequence validates the portfolio and builds a simulation sequence
// from it. Extra options (a fixed UUID source, for instance) are appended
// after the portfolio's own.
//
// Validation errors are returned as a joined error; callers wanting the full
// list should run Validate first.
func (p *Portfolio) BuildSequence(extra ...sequence.Option) (*sequence.SimulationSequence, []model.Problem, error) {
	if errs := Validate(p); len(errs) > 0 {
		return nil, nil, fmt.Errorf("portfolio %q: %d validation error(s), first: %w", p.Name, len(errs), errs[0])
	}

	problems := p.BuildProblems()
	opts := append(p.Options(), extra...)

	seq, err := sequence.NewSimulationSequence(problems, p.Intervals(), opts...)
	if err != nil {
		return nil, nil, err
	}
	return seq, problems, nil
}

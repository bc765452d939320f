package sequence

import (
	"time"

	"github.com/sambuddhac/powersim/internal/model"
)

// IntervalEntry declares the execution interval and intra-problem
// chronology for one problem.
type IntervalEntry struct {
	// Problem is the unique problem name.
	Problem string

	// Interval is the time span between consecutive executions.
	// Must be a positive whole number of seconds.
	Interval time.Duration

	// Chronology governs how look-ahead periods beyond the interval roll
	// over between consecutive runs of this problem.
	Chronology model.Chronology
}

// IntervalTable holds interval entries in declaration order, coarsest
// problem first. The declared order is a total order fixed at construction:
// it defines the parent/child relationships the resolver expands.
type IntervalTable struct {
	entries []IntervalEntry
	index   map[string]int // problem name -> position
}

// NewIntervalTable validates and normalizes the declared entries.
//
// Normalization truncates each interval to whole seconds - the canonical
// unit for ratio arithmetic. Fails when the table is empty, a problem is
// declared twice, an interval is not a positive whole number of seconds, or
// a chronology variant is malformed.
func NewIntervalTable(entries []IntervalEntry) (*IntervalTable, error) {
	if len(entries) == 0 {
		return nil, newConfigError(ErrCodeEmptyTable, "", "interval table has no entries")
	}

	normalized := make([]IntervalEntry, len(entries))
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		name := model.NormalizeName(e.Problem)
		if name == "" {
			return nil, newConfigError(ErrCodeMissingInterval, "", "interval entry %d has an empty problem name", i)
		}
		if _, dup := index[name]; dup {
			return nil, newConfigError(ErrCodeDuplicateProblem, name, "problem declared more than once in interval table")
		}
		if e.Interval <= 0 {
			return nil, newConfigError(ErrCodeBadInterval, name, "interval must be positive, got %s", e.Interval)
		}
		if e.Interval%time.Second != 0 {
			return nil, newConfigError(ErrCodeBadInterval, name, "interval must be a whole number of seconds, got %s", e.Interval)
		}
		if err := e.Chronology.Validate(); err != nil {
			return nil, newConfigError(ErrCodeBadChronology, name, "invalid chronology: %v", err)
		}
		normalized[i] = IntervalEntry{Problem: name, Interval: e.Interval, Chronology: e.Chronology}
		index[name] = i
	}

	return &IntervalTable{entries: normalized, index: index}, nil
}

// Len returns the number of problems in the table.
func (t *IntervalTable) Len() int { return len(t.entries) }

// Entry returns the entry at position i (0-based, declaration order).
func (t *IntervalTable) Entry(i int) IntervalEntry { return t.entries[i] }

// Lookup returns the entry for a problem name.
func (t *IntervalTable) Lookup(name string) (IntervalEntry, bool) {
	i, ok := t.index[model.NormalizeName(name)]
	if !ok {
		return IntervalEntry{}, false
	}
	return t.entries[i], true
}

// Names returns the problem names in declaration order.
func (t *IntervalTable) Names() []string {
	names := make([]string, len(t.entries))
	for i, e := range t.entries {
		names[i] = e.Problem
	}
	return names
}

// StepResolution returns the coarsest interval - the wall-clock span one
// top-level simulation step covers.
func (t *IntervalTable) StepResolution() time.Duration {
	return t.entries[0].Interval
}

// intervalSeconds returns the interval of entry i in whole seconds.
func (t *IntervalTable) intervalSeconds(i int) int64 {
	return int64(t.entries[i].Interval / time.Second)
}

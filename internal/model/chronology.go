package model

import "fmt"

// ChronologyKind identifies how look-ahead periods flow between runs,
// either between consecutive runs of one problem (intra-problem) or from a
// source problem to a target problem (inter-problem).
//
// This is a closed set. Adding a kind means touching every switch that
// dispatches on it, which is intentional.
type ChronologyKind string

const (
	// ChronologyConsecutive discards look-ahead periods beyond the interval;
	// each run starts fresh from the resolved initial time.
	ChronologyConsecutive ChronologyKind = "consecutive"

	// ChronologySynchronize exposes a fixed window of source periods to the
	// consumer. Carries a Periods parameter.
	ChronologySynchronize ChronologyKind = "synchronize"

	// ChronologyRecedingHorizon slides the visible window forward by one
	// period per consumer run.
	ChronologyRecedingHorizon ChronologyKind = "receding_horizon"

	// ChronologyFullHorizon exposes the source's entire horizon.
	ChronologyFullHorizon ChronologyKind = "full_horizon"
)

// Chronology is a tagged variant: Kind selects the policy, Periods carries
// the synchronization window length and is meaningful only for
// ChronologySynchronize.
type Chronology struct {
	Kind    ChronologyKind `json:"kind"`
	Periods int            `json:"periods,omitempty"`
}

// Consecutive returns the consecutive chronology.
func Consecutive() Chronology {
	return Chronology{Kind: ChronologyConsecutive}
}

// Synchronize returns a synchronize chronology with the given window length.
func Synchronize(periods int) Chronology {
	return Chronology{Kind: ChronologySynchronize, Periods: periods}
}

// RecedingHorizon returns the receding-horizon chronology.
func RecedingHorizon() Chronology {
	return Chronology{Kind: ChronologyRecedingHorizon}
}

// FullHorizon returns the full-horizon chronology.
func FullHorizon() Chronology {
	return Chronology{Kind: ChronologyFullHorizon}
}

// Validate checks internal consistency of the variant.
func (c Chronology) Validate() error {
	switch c.Kind {
	case ChronologyConsecutive, ChronologyRecedingHorizon, ChronologyFullHorizon:
		if c.Periods != 0 {
			return fmt.Errorf("chronology %q does not take a periods parameter", c.Kind)
		}
		return nil
	case ChronologySynchronize:
		if c.Periods <= 0 {
			return fmt.Errorf("synchronize chronology requires periods > 0, got %d", c.Periods)
		}
		return nil
	default:
		return fmt.Errorf("unknown chronology kind %q", c.Kind)
	}
}

// String returns the kind, with the window length for synchronize.
func (c Chronology) String() string {
	if c.Kind == ChronologySynchronize {
		return fmt.Sprintf("%s(%d)", c.Kind, c.Periods)
	}
	return string(c.Kind)
}

// ChronologyPair keys an inter-problem chronology by the ordered
// (source, target) problem names.
type ChronologyPair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// NewChronologyPair builds a pair with NFC normalized names.
func NewChronologyPair(source, target string) ChronologyPair {
	return ChronologyPair{Source: NormalizeName(source), Target: NormalizeName(target)}
}

// InitialConditionChronology selects where a problem's starting state for
// its next run comes from.
type InitialConditionChronology string

const (
	// IntraProblemChronology: initial conditions come from the problem's
	// own previous solve.
	IntraProblemChronology InitialConditionChronology = "intra"

	// InterProblemChronology: initial conditions come from an upstream
	// problem's solve. Meaningless for single-problem sequences, which
	// downgrade to IntraProblemChronology with a warning.
	InterProblemChronology InitialConditionChronology = "inter"
)

// Valid reports whether the value is one of the two defined chronologies.
func (ic InitialConditionChronology) Valid() bool {
	return ic == IntraProblemChronology || ic == InterProblemChronology
}

package model

import "fmt"

// FeedforwardKind identifies how an upstream result modifies a downstream
// problem's input. The sequencer routes feedforwards; the numeric
// substitution semantics of each kind live with the solver.
type FeedforwardKind string

const (
	// FeedforwardSemiContinuous forces a downstream continuous variable to
	// respect an upstream binary commitment decision.
	FeedforwardSemiContinuous FeedforwardKind = "semicontinuous"

	// FeedforwardUpperBound caps a downstream variable at the upstream
	// solved value.
	FeedforwardUpperBound FeedforwardKind = "upper_bound"

	// FeedforwardIntegralLimit bounds the integral of a downstream variable
	// over the synchronized window by the upstream solved value.
	FeedforwardIntegralLimit FeedforwardKind = "integral_limit"

	// FeedforwardParameter writes the upstream solved value into a
	// downstream parameter.
	FeedforwardParameter FeedforwardKind = "parameter"
)

// Valid reports whether the kind is one of the defined feedforward kinds.
func (k FeedforwardKind) Valid() bool {
	switch k {
	case FeedforwardSemiContinuous, FeedforwardUpperBound, FeedforwardIntegralLimit, FeedforwardParameter:
		return true
	}
	return false
}

// FeedforwardKey identifies which downstream input a feedforward affects:
// the target problem, the value category (variable, parameter, ...), and the
// component type the value is attached to.
type FeedforwardKey struct {
	TargetProblem string `json:"target_problem"`
	Category      string `json:"category"`
	ComponentType string `json:"component_type"`
}

// NewFeedforwardKey builds a key with an NFC normalized target name.
func NewFeedforwardKey(targetProblem, category, componentType string) FeedforwardKey {
	return FeedforwardKey{
		TargetProblem: NormalizeName(targetProblem),
		Category:      category,
		ComponentType: componentType,
	}
}

func (k FeedforwardKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.TargetProblem, k.Category, k.ComponentType)
}

// Feedforward declares that a value computed by an upstream problem affects
// the input identified by its key. Owned by the sequence; consumed by the
// driver at tick time, never mutated after construction.
type Feedforward struct {
	// Kind selects the substitution semantics applied by the solver.
	Kind FeedforwardKind `json:"kind"`

	// AffectedValues names the downstream values the directive rewrites.
	AffectedValues []string `json:"affected_values,omitempty"`
}

// Validate checks the directive is well formed.
func (f Feedforward) Validate() error {
	if !f.Kind.Valid() {
		return fmt.Errorf("unknown feedforward kind %q", f.Kind)
	}
	return nil
}

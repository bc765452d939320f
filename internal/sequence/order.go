package sequence

import "fmt"

// ExecutionPlan is the resolved scheduling skeleton for one top-level
// simulation step: the flat interleaved execution order plus the counting
// tables it was derived from. Produced once and reused for every step.
type ExecutionPlan struct {
	// Order holds 1-based problem indices in firing order. Its length is
	// the sum of the per-problem multipliers.
	Order []int

	// Ratios[k] is the number of times problem k+1 (1-based) runs within
	// one execution of its parent. Ratios[0] is always 1.
	Ratios []int

	// Multipliers[k] is the total number of executions of problem k+1
	// (1-based) within one top-level step: the product of ratios up to and
	// including itself.
	Multipliers []int
}

// unfilled marks execution-order slots not yet written by the expansion.
// Any slot still carrying it after the fill is a resolver bug.
const unfilled = -1

// ResolveExecutionOrder computes the depth-first interleaved execution
// order for one top-level step of the given interval table.
//
// For each adjacent pair in declaration order the run-count ratio must be an
// exact integer; a fractional ratio fails with a ConfigurationError naming
// the offending problem. The expansion uses the parent-after-children
// convention: each problem's own tick closes the full nested cycles of its
// children (see the package documentation).
func ResolveExecutionOrder(table *IntervalTable) (*ExecutionPlan, error) {
	n := table.Len()

	// Exactly one problem: it simply fires once per step.
	if n == 1 {
		return &ExecutionPlan{Order: []int{1}, Ratios: []int{1}, Multipliers: []int{1}}, nil
	}

	ratios := make([]int, n)
	ratios[0] = 1
	for k := 1; k < n; k++ {
		parent := table.intervalSeconds(k - 1)
		child := table.intervalSeconds(k)
		if parent%child != 0 {
			return nil, newConfigError(ErrCodeInexactRatio, table.Entry(k).Problem,
				"interval %s does not evenly divide parent interval %s",
				table.Entry(k).Interval, table.Entry(k-1).Interval)
		}
		ratios[k] = int(parent / child)
	}

	multipliers := make([]int, n)
	total := 0
	product := 1
	for k := 0; k < n; k++ {
		product *= ratios[k]
		multipliers[k] = product
		total += product
	}

	order := make([]int, total)
	for i := range order {
		order[i] = unfilled
	}

	next := fillOrder(order, ratios, 0, 0)
	if next != total {
		return nil, &InternalError{Message: "execution order fill stopped early"}
	}
	for i, idx := range order {
		if idx == unfilled {
			return nil, &InternalError{Message: fmt.Sprintf("execution order has an unfilled slot at %d", i)}
		}
	}

	return &ExecutionPlan{Order: order, Ratios: ratios, Multipliers: multipliers}, nil
}

// fillOrder writes one full execution of problem k (0-based) into order
// starting at idx and returns the next free index. One execution of k is
// ratios[k+1] executions of k+1 followed by k's own tick.
//
// Pure recursion over an explicit index - no shared mutable closure state.
func fillOrder(order []int, ratios []int, k, idx int) int {
	if k+1 < len(ratios) {
		for r := 0; r < ratios[k+1]; r++ {
			idx = fillOrder(order, ratios, k+1, idx)
		}
	}
	order[idx] = k + 1 // 1-based problem index
	return idx + 1
}

// TallyExecutions counts how many times each 1-based problem index appears
// in the order. The result must agree with the plan's multipliers; tests
// hold the two derivations against each other.
func (p *ExecutionPlan) TallyExecutions() map[int]int {
	counts := make(map[int]int, len(p.Multipliers))
	for _, idx := range p.Order {
		counts[idx]++
	}
	return counts
}

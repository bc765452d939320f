package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/sambuddhac/powersim/internal/model"
	"github.com/sambuddhac/powersim/internal/sequence"
)

// PlanSnapshot captures the deterministic parts of a built sequence as a
// canonical-JSON document: the execution order, per-problem tick counts, and
// interval-table shape. The minted UUID is excluded.
func PlanSnapshot(name string, seq *sequence.SimulationSequence) ([]byte, error) {
	order := seq.ExecutionOrder()
	orderList := make([]any, len(order))
	for i, idx := range order {
		orderList[i] = idx
	}

	executions := make(map[string]any)
	for problem, count := range seq.ExecutionsByProblem() {
		executions[problem] = count
	}

	var problems []any
	for _, problem := range seq.ProblemNames() {
		interval, _ := seq.Interval(problem)
		chron, _ := seq.Chronology(problem)
		problems = append(problems, map[string]any{
			"name":       problem,
			"interval":   interval.String(),
			"chronology": chron.String(),
		})
	}

	return model.MarshalCanonical(map[string]any{
		"name":            name,
		"step_resolution": seq.StepResolution().String(),
		"order_length":    len(order),
		"order":           orderList,
		"executions":      executions,
		"problems":        problems,
	})
}

// RunWithGolden executes a scenario, verifies its expectations, and compares
// the plan snapshot against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	if err := Verify(scenario, result); err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	if result.Sequence == nil {
		// Error scenarios have no plan to snapshot.
		return
	}

	snapshot, err := PlanSnapshot(scenario.Name, result.Sequence)
	if err != nil {
		t.Fatalf("scenario %s: snapshot: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)
}

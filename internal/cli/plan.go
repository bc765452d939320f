package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sambuddhac/powersim/internal/compiler"
	"github.com/sambuddhac/powersim/internal/model"
	"github.com/sambuddhac/powersim/internal/sequence"
)

// PlanProblem describes one problem's slot in a computed plan.
type PlanProblem struct {
	Name       string `json:"name"`
	Horizon    int    `json:"horizon"`
	Interval   string `json:"interval"`
	Chronology string `json:"chronology"`
	Executions int    `json:"executions"`
}

// PlanResult is the computed execution plan for a portfolio.
type PlanResult struct {
	Portfolio      string        `json:"portfolio,omitempty"`
	UUID           string        `json:"uuid"`
	SpecHash       string        `json:"spec_hash"`
	StepResolution string        `json:"step_resolution"`
	OrderLength    int           `json:"order_length"`
	ExecutionOrder []int         `json:"execution_order"`
	Problems       []PlanProblem `json:"problems"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <portfolio-dir>",
		Short: "Compute the execution order for a portfolio",
		Long: `Build the simulation sequence for a portfolio and print its execution plan:
the execution order, per-problem tick counts, and the sequence fingerprint.

A fresh sequence identity (UUIDv7) is minted on every invocation; the spec
hash is stable for identical portfolios.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runPlan(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	seq, _, loaded, err := buildFromDir(dir)
	if err != nil {
		return outputBuildError(formatter, err)
	}

	result := buildPlanResult(seq)
	result.Portfolio = loaded.Portfolio.Name

	if formatter.Format == "json" {
		return formatter.SuccessJSON(result)
	}

	printPlanText(formatter, result)
	return nil
}

// buildFromDir loads a portfolio directory and builds its sequence.
// Shared by plan and run.
func buildFromDir(dir string, extra ...sequence.Option) (*sequence.SimulationSequence, []model.Problem, *LoadResult, error) {
	result, err := LoadPortfolio(dir)
	if err != nil {
		return nil, nil, nil, err
	}

	if errs := compiler.Validate(result.Portfolio); len(errs) > 0 {
		return nil, nil, nil, fmt.Errorf("portfolio validation failed: %w", errs[0])
	}

	seq, problems, err := result.Portfolio.BuildSequence(extra...)
	if err != nil {
		return nil, nil, nil, err
	}

	return seq, problems, result, nil
}

func buildPlanResult(seq *sequence.SimulationSequence) PlanResult {
	execs := seq.ExecutionsByProblem()

	result := PlanResult{
		UUID:           seq.UUID(),
		SpecHash:       seq.SpecHash(),
		StepResolution: seq.StepResolution().String(),
		ExecutionOrder: seq.ExecutionOrder(),
	}
	result.OrderLength = len(result.ExecutionOrder)

	for _, name := range seq.ProblemNames() {
		interval, _ := seq.Interval(name)
		chron, _ := seq.Chronology(name)
		result.Problems = append(result.Problems, PlanProblem{
			Name:       name,
			Interval:   interval.String(),
			Chronology: chron.String(),
			Executions: execs[name],
		})
	}

	return result
}

func printPlanText(formatter *OutputFormatter, result PlanResult) {
	w := formatter.Writer

	if result.Portfolio != "" {
		fmt.Fprintf(w, "Portfolio:       %s\n", result.Portfolio)
	}
	fmt.Fprintf(w, "Sequence UUID:   %s\n", result.UUID)
	fmt.Fprintf(w, "Spec hash:       %s\n", result.SpecHash)
	fmt.Fprintf(w, "Step resolution: %s\n", result.StepResolution)
	fmt.Fprintf(w, "Order length:    %d\n", result.OrderLength)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Problems (coarsest first):")
	for i, p := range result.Problems {
		fmt.Fprintf(w, "  %d. %-12s interval=%-8s chronology=%-16s executions/step=%d\n",
			i+1, p.Name, p.Interval, p.Chronology, p.Executions)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Execution order: %s\n", formatOrder(result.ExecutionOrder))
}

// formatOrder renders an execution order compactly, run-length encoding
// repeated indices: [2 2 2 1] becomes "2x3 1".
func formatOrder(order []int) string {
	if len(order) == 0 {
		return "[]"
	}

	var b strings.Builder
	b.WriteString("[")
	i := 0
	for i < len(order) {
		j := i
		for j < len(order) && order[j] == order[i] {
			j++
		}
		if i > 0 {
			b.WriteString(" ")
		}
		if run := j - i; run > 1 {
			fmt.Fprintf(&b, "%dx%d", order[i], run)
		} else {
			fmt.Fprintf(&b, "%d", order[i])
		}
		i = j
	}
	b.WriteString("]")
	return b.String()
}

// outputBuildError maps load/build failures onto formatter output and exit
// codes: configuration problems are validation failures (exit 1), missing
// paths and unparseable input are command errors (exit 2).
func outputBuildError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return WrapExitError(ExitCommandError, "cannot load portfolio", err)
	}

	if sequence.IsConfigurationError(err) {
		_ = formatter.Error(string(sequence.ConfigCodeOf(err)), err.Error(), nil)
		return WrapExitError(ExitFailure, "sequence configuration invalid", err)
	}

	var verr compiler.ValidationError
	if errors.As(err, &verr) {
		_ = formatter.Error(verr.Code, verr.Error(), nil)
		return WrapExitError(ExitFailure, "portfolio validation failed", err)
	}

	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "plan failed", err)
}

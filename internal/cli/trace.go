package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sambuddhac/powersim/internal/model"
	"github.com/sambuddhac/powersim/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
}

// TraceResult is the trace command's success payload for a single sequence.
type TraceResult struct {
	Sequence   TraceSequence         `json:"sequence"`
	Executions []model.ExecutionRecord `json:"executions"`
	Tally      map[string]int        `json:"tally"`
}

// TraceSequence summarizes one stored sequence.
type TraceSequence struct {
	UUID             string   `json:"uuid"`
	SpecHash         string   `json:"spec_hash"`
	SequencerVersion string   `json:"sequencer_version"`
	SchemaVersion    string   `json:"schema_version"`
	StepResolution   string   `json:"step_resolution"`
	Problems         []string `json:"problems"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [sequence-uuid]",
		Short: "Inspect a stored execution log",
		Long: `Read the execution log written by a previous run.

Without a sequence UUID, lists every stored sequence. With one, prints the
sequence metadata and its full execution log in logical order.

Example:
  powersim trace --db ./powersim.db
  powersim trace --db ./powersim.db 0190c07e-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			uuid := ""
			if len(args) == 1 {
				uuid = args[0]
			}
			return runTrace(opts, uuid, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, uuid string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if uuid == "" {
		return traceList(formatter, st, cmd)
	}
	return traceSequence(formatter, st, cmd, uuid)
}

func traceList(formatter *OutputFormatter, st *store.Store, cmd *cobra.Command) error {
	sequences, err := st.ListSequences(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sequences", err)
	}

	summaries := make([]TraceSequence, len(sequences))
	for i, rec := range sequences {
		summaries[i] = toTraceSequence(rec)
	}

	if formatter.Format == "json" {
		return formatter.SuccessJSON(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(formatter.Writer, "No sequences stored.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(formatter.Writer, "%s  step=%s  problems=%v\n", s.UUID, s.StepResolution, s.Problems)
	}
	return nil
}

func traceSequence(formatter *OutputFormatter, st *store.Store, cmd *cobra.Command, uuid string) error {
	seqRec, err := st.ReadSequence(cmd.Context(), uuid)
	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("sequence %s not found", uuid), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("sequence %s not found", uuid))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read sequence", err)
	}

	executions, err := st.ReadExecutions(cmd.Context(), uuid)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read executions", err)
	}

	tally, err := st.ExecutionTally(cmd.Context(), uuid)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to tally executions", err)
	}

	result := TraceResult{
		Sequence:   toTraceSequence(seqRec),
		Executions: executions,
		Tally:      tally,
	}

	if formatter.Format == "json" {
		return formatter.SuccessJSON(result)
	}

	s := result.Sequence
	fmt.Fprintf(formatter.Writer, "Sequence:        %s\n", s.UUID)
	fmt.Fprintf(formatter.Writer, "Spec hash:       %s\n", s.SpecHash)
	fmt.Fprintf(formatter.Writer, "Sequencer:       %s (schema %s)\n", s.SequencerVersion, s.SchemaVersion)
	fmt.Fprintf(formatter.Writer, "Step resolution: %s\n", s.StepResolution)
	fmt.Fprintf(formatter.Writer, "Problems:        %v\n", s.Problems)
	fmt.Fprintln(formatter.Writer)

	fmt.Fprintf(formatter.Writer, "%-6s %-6s %-12s %-22s %s\n", "tick", "step", "problem", "initial_time", "status")
	for _, e := range result.Executions {
		fmt.Fprintf(formatter.Writer, "%-6d %-6d %-12s %-22s %s\n",
			e.GlobalTick, e.Step, e.Problem, e.InitialTime.Format(time.RFC3339), e.Status)
	}
	return nil
}

func toTraceSequence(rec store.SequenceRecord) TraceSequence {
	return TraceSequence{
		UUID:             rec.UUID,
		SpecHash:         rec.SpecHash,
		SequencerVersion: rec.SequencerVersion,
		SchemaVersion:    rec.SchemaVersion,
		StepResolution:   rec.StepResolution.String(),
		Problems:         rec.Problems,
	}
}

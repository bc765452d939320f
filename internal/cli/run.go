package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sambuddhac/powersim/internal/driver"
	"github.com/sambuddhac/powersim/internal/model"
	"github.com/sambuddhac/powersim/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Steps    int
	Start    string

	// Solver allows overriding the solver (for testing).
	// If nil, defaults to the logging stub solver.
	Solver driver.Solver
}

// RunSummary is the run command's success payload.
type RunSummary struct {
	UUID       string         `json:"uuid"`
	SpecHash   string         `json:"spec_hash"`
	Steps      int            `json:"steps"`
	Ticks      int            `json:"ticks"`
	Executions map[string]int `json:"executions"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <portfolio-dir>",
		Short: "Run a portfolio's execution order",
		Long: `Build the simulation sequence for a portfolio and drive its execution
order for the requested number of steps.

The built-in solver is a stub that records each tick without solving
anything; wire a real solver through the library API. With --db, the
sequence and every tick outcome are persisted to SQLite.

Example:
  powersim run --steps 2 --db ./powersim.db ./portfolio
  powersim run --steps 1 ./portfolio --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (optional; omit for a dry run)")
	cmd.Flags().IntVar(&opts.Steps, "steps", 1, "number of simulation steps to run")
	cmd.Flags().StringVar(&opts.Start, "start", "", "simulation start time, RFC 3339 (default: today 00:00 UTC)")

	return cmd
}

func runSimulation(opts *RunOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	start, err := resolveStart(opts.Start)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid start time", err)
	}

	slog.Info("compiling portfolio", "dir", dir)
	seq, problems, _, err := buildFromDir(dir)
	if err != nil {
		return outputBuildError(formatter, err)
	}
	slog.Info("sequence built", "uuid", seq.UUID(), "problems", len(problems), "order_length", len(seq.ExecutionOrder()))

	cfg := driver.Config{
		Sequence:    seq,
		Problems:    problems,
		Solver:      opts.Solver,
		Steps:       opts.Steps,
		InitialTime: start,
	}
	if cfg.Solver == nil {
		cfg.Solver = stubSolver()
	}

	if opts.Database != "" {
		slog.Info("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()

		writeErr := st.WriteSequence(cmd.Context(), store.SequenceRecord{
			UUID:             seq.UUID(),
			SpecHash:         seq.SpecHash(),
			SequencerVersion: model.SequencerVersion,
			SchemaVersion:    model.SchemaVersion,
			StepResolution:   seq.StepResolution(),
			Problems:         seq.ProblemNames(),
			CreatedSeq:       1,
		})
		if writeErr != nil {
			return WrapExitError(ExitCommandError, "failed to record sequence", writeErr)
		}
		cfg.Recorder = st
	}

	d, err := driver.New(cfg)
	if err != nil {
		return outputBuildError(formatter, err)
	}

	// Graceful shutdown on Ctrl-C; the execution index survives the abort.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, aborting run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("run starting", "steps", opts.Steps, "start", start)
	if err := d.Run(ctx); err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "run aborted", err)
	}

	summary := RunSummary{
		UUID:       seq.UUID(),
		SpecHash:   seq.SpecHash(),
		Steps:      opts.Steps,
		Ticks:      seq.CurrentExecutionIndex(),
		Executions: seq.ExecutionsByProblem(),
	}

	if formatter.Format == "json" {
		return formatter.SuccessJSON(summary)
	}

	fmt.Fprintf(formatter.Writer, "Run complete: %d step(s), %d tick(s), sequence %s\n",
		summary.Steps, summary.Ticks, summary.UUID)
	return nil
}

// stubSolver acknowledges each tick without solving anything.
func stubSolver() driver.Solver {
	return driver.SolverFunc(func(_ context.Context, p model.Problem, updates []driver.FeedforwardUpdate) error {
		slog.Debug("stub solve",
			"problem", p.Name(),
			"initial_time", p.InitialTime(),
			"feedforward_updates", len(updates))
		return nil
	})
}

func resolveStart(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse start time %q: %w", s, err)
	}
	return t.UTC(), nil
}

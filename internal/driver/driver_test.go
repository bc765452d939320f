package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambuddhac/powersim/internal/model"
	"github.com/sambuddhac/powersim/internal/sequence"
	"github.com/sambuddhac/powersim/internal/testutil"
)

// recordingSolver captures every solve call for assertion.
type recordingSolver struct {
	calls []solveCall
	fail  func(call int) error // optional per-call failure injection
}

type solveCall struct {
	problem     string
	initialTime time.Time
	updates     []FeedforwardUpdate
}

func (s *recordingSolver) Solve(_ context.Context, p model.Problem, updates []FeedforwardUpdate) error {
	s.calls = append(s.calls, solveCall{
		problem:     p.Name(),
		initialTime: p.InitialTime(),
		updates:     updates,
	})
	if s.fail != nil {
		return s.fail(len(s.calls))
	}
	return nil
}

// memoryRecorder keeps execution records in order.
type memoryRecorder struct {
	records []model.ExecutionRecord
}

func (r *memoryRecorder) RecordExecution(_ context.Context, rec model.ExecutionRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func buildUCED(t *testing.T) (*sequence.SimulationSequence, []model.Problem) {
	t.Helper()
	problems := []model.Problem{
		model.NewOperationsProblem("UC", 48),
		model.NewOperationsProblem("ED", 12),
	}
	seq, err := sequence.NewSimulationSequence(problems,
		[]sequence.IntervalEntry{
			{Problem: "UC", Interval: 24 * time.Hour, Chronology: model.Consecutive()},
			{Problem: "ED", Interval: time.Hour, Chronology: model.Consecutive()},
		},
		sequence.WithFeedforwards(map[model.FeedforwardKey]model.Feedforward{
			model.NewFeedforwardKey("ED", "variable", "ThermalStandard"): {Kind: model.FeedforwardSemiContinuous},
		}),
		sequence.WithFeedforwardChronologies(map[model.ChronologyPair]model.Chronology{
			model.NewChronologyPair("UC", "ED"): model.Synchronize(24),
		}),
		sequence.WithUUIDSource(testutil.NewFixedUUIDSource("seq-driver-test")),
	)
	require.NoError(t, err)
	return seq, problems
}

func simStart() time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestDriver_RunsTicksInExecutionOrder(t *testing.T) {
	seq, problems := buildUCED(t)
	solver := &recordingSolver{}

	d, err := New(Config{
		Sequence:    seq,
		Problems:    problems,
		Solver:      solver,
		Steps:       1,
		InitialTime: simStart(),
	})
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background()))

	require.Len(t, solver.calls, 25)
	for i := 0; i < 24; i++ {
		assert.Equal(t, "ED", solver.calls[i].problem)
	}
	assert.Equal(t, "UC", solver.calls[24].problem, "the coarse tick closes the step")
	assert.Equal(t, 25, seq.CurrentExecutionIndex())
}

func TestDriver_ResolvesInitialTimesFromOwnCounters(t *testing.T) {
	seq, problems := buildUCED(t)
	solver := &recordingSolver{}

	d, err := New(Config{
		Sequence:    seq,
		Problems:    problems,
		Solver:      solver,
		Steps:       2,
		InitialTime: simStart(),
	})
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background()))
	require.Len(t, solver.calls, 50)

	// Step 1: ED advances hourly from the simulation start.
	assert.Equal(t, simStart(), solver.calls[0].initialTime)
	assert.Equal(t, simStart().Add(time.Hour), solver.calls[1].initialTime)
	assert.Equal(t, simStart().Add(23*time.Hour), solver.calls[23].initialTime)
	// UC runs once per step, at the step start.
	assert.Equal(t, simStart(), solver.calls[24].initialTime)

	// Step 2: everything shifts by the step resolution.
	dayTwo := simStart().Add(24 * time.Hour)
	assert.Equal(t, dayTwo, solver.calls[25].initialTime)
	assert.Equal(t, dayTwo.Add(time.Hour), solver.calls[26].initialTime)
	assert.Equal(t, dayTwo, solver.calls[49].initialTime)
}

func TestDriver_FeedforwardVisibleOnlyWithNewerSourceResults(t *testing.T) {
	seq, problems := buildUCED(t)
	solver := &recordingSolver{}

	d, err := New(Config{
		Sequence:    seq,
		Problems:    problems,
		Solver:      solver,
		Steps:       2,
		InitialTime: simStart(),
	})
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background()))

	// Step 1: UC has not run yet, so no ED tick sees an update.
	for i := 0; i < 24; i++ {
		assert.Empty(t, solver.calls[i].updates, "step 1 ED tick %d", i)
	}

	// Step 2, first ED tick: UC's step-1 result is newer than ED's last run.
	first := solver.calls[25]
	require.Len(t, first.updates, 1)
	assert.Equal(t, "UC", first.updates[0].Source)
	assert.Equal(t, model.FeedforwardSemiContinuous, first.updates[0].Kind)
	assert.Equal(t, int64(25), first.updates[0].SourceTick)
	assert.Equal(t, 24, first.updates[0].Chronology.Periods)

	// Later ED ticks in step 2 have already run after UC; nothing newer.
	assert.Empty(t, solver.calls[26].updates)
}

func TestDriver_AbortsOnSolveFailure(t *testing.T) {
	seq, problems := buildUCED(t)
	boom := errors.New("infeasible")
	solver := &recordingSolver{fail: func(call int) error {
		if call == 5 {
			return boom
		}
		return nil
	}}
	rec := &memoryRecorder{}

	d, err := New(Config{
		Sequence:    seq,
		Problems:    problems,
		Solver:      solver,
		Steps:       1,
		InitialTime: simStart(),
		Recorder:    rec,
	})
	require.NoError(t, err)

	err = d.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// No retry, no further ticks.
	assert.Len(t, solver.calls, 5)
	// The index stays at the last fully completed tick.
	assert.Equal(t, 4, seq.CurrentExecutionIndex())

	// All five ticks were recorded; the last carries the failed status.
	require.Len(t, rec.records, 5)
	assert.Equal(t, model.StatusFailed, rec.records[4].Status)
	assert.Equal(t, model.StatusOK, rec.records[3].Status)
}

func TestDriver_RecordsExecutionLog(t *testing.T) {
	seq, problems := buildUCED(t)
	rec := &memoryRecorder{}

	d, err := New(Config{
		Sequence:    seq,
		Problems:    problems,
		Solver:      &recordingSolver{},
		Steps:       1,
		InitialTime: simStart(),
		Recorder:    rec,
	})
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background()))

	require.Len(t, rec.records, 25)
	for i, r := range rec.records {
		assert.Equal(t, "seq-driver-test", r.SequenceUUID)
		assert.Equal(t, int64(i+1), r.GlobalTick)
		assert.Equal(t, int64(i+1), r.Seq, "logical clock stamps ticks in order")
		assert.Equal(t, 1, r.Step)
		assert.NotEmpty(t, r.ID)
	}
	assert.Equal(t, "UC", rec.records[24].Problem)
}

func TestDriver_ContextCancellationAbortsCleanly(t *testing.T) {
	seq, problems := buildUCED(t)
	ctx, cancel := context.WithCancel(context.Background())
	solver := &recordingSolver{fail: func(call int) error {
		if call == 10 {
			cancel() // takes effect before the next tick
		}
		return nil
	}}

	d, err := New(Config{
		Sequence:    seq,
		Problems:    problems,
		Solver:      solver,
		Steps:       1,
		InitialTime: simStart(),
	})
	require.NoError(t, err)

	err = d.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, solver.calls, 10)
	assert.Equal(t, 10, seq.CurrentExecutionIndex())
}

func TestNew_RejectsMissingProblem(t *testing.T) {
	seq, problems := buildUCED(t)
	_, err := New(Config{
		Sequence:    seq,
		Problems:    problems[:1],
		Solver:      &recordingSolver{},
		Steps:       1,
		InitialTime: simStart(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ED")
}

func TestNew_RejectsForeignProblem(t *testing.T) {
	seq, problems := buildUCED(t)

	stray := model.NewOperationsProblem("ED", 12)
	stray.SetSequenceUUID("some-other-sequence")

	_, err := New(Config{
		Sequence:    seq,
		Problems:    []model.Problem{problems[0], stray},
		Solver:      &recordingSolver{},
		Steps:       1,
		InitialTime: simStart(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "some-other-sequence")
}

func TestNew_RunsBuildTimeSequenceChecks(t *testing.T) {
	problems := []model.Problem{
		model.NewOperationsProblem("UC", 48),
		model.NewOperationsProblem("ED", 12),
	}
	seq, err := sequence.NewSimulationSequence(problems,
		[]sequence.IntervalEntry{
			{Problem: "UC", Interval: 24 * time.Hour, Chronology: model.Consecutive()},
			{Problem: "ED", Interval: time.Hour, Chronology: model.Consecutive()},
		},
		sequence.WithFeedforwardChronologies(map[model.ChronologyPair]model.Chronology{
			model.NewChronologyPair("UC", "ED"): model.Synchronize(48),
		}),
	)
	require.NoError(t, err)

	// A 48-period window needs at least two steps.
	_, err = New(Config{
		Sequence:    seq,
		Problems:    problems,
		Solver:      &recordingSolver{},
		Steps:       1,
		InitialTime: simStart(),
	})
	require.Error(t, err)
	assert.True(t, sequence.IsConfigurationError(err))

	_, err = New(Config{
		Sequence:    seq,
		Problems:    problems,
		Solver:      &recordingSolver{},
		Steps:       2,
		InitialTime: simStart(),
	})
	assert.NoError(t, err)
}

func TestSolverFunc_Adapts(t *testing.T) {
	called := false
	var s Solver = SolverFunc(func(context.Context, model.Problem, []FeedforwardUpdate) error {
		called = true
		return nil
	})
	require.NoError(t, s.Solve(context.Background(), model.NewOperationsProblem("UC", 1), nil))
	assert.True(t, called)
}

func TestClock_NextAndResume(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())

	resumed := NewClockAt(41)
	assert.Equal(t, int64(42), resumed.Next())
}

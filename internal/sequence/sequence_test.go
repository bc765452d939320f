package sequence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambuddhac/powersim/internal/model"
	"github.com/sambuddhac/powersim/internal/testutil"
)

func ucEdProblems() []model.Problem {
	return []model.Problem{
		model.NewOperationsProblem("UC", 48),
		model.NewOperationsProblem("ED", 12),
	}
}

func ucEdIntervals() []IntervalEntry {
	return []IntervalEntry{
		entry("UC", 24*time.Hour),
		entry("ED", time.Hour),
	}
}

func ucEdChronologies() map[model.ChronologyPair]model.Chronology {
	return map[model.ChronologyPair]model.Chronology{
		model.NewChronologyPair("UC", "ED"): model.Synchronize(24),
	}
}

func TestNewSimulationSequence_BuildsPlanAndStampsUUID(t *testing.T) {
	problems := ucEdProblems()
	seq, err := NewSimulationSequence(problems, ucEdIntervals(),
		WithFeedforwardChronologies(ucEdChronologies()),
		WithUUIDSource(testutil.NewFixedUUIDSource("seq-test-1")),
	)
	require.NoError(t, err)

	assert.Equal(t, "seq-test-1", seq.UUID())
	assert.Equal(t, 24*time.Hour, seq.StepResolution())
	assert.Len(t, seq.ExecutionOrder(), 25)
	assert.Equal(t, map[string]int{"UC": 1, "ED": 24}, seq.ExecutionsByProblem())

	for _, p := range problems {
		assert.Equal(t, "seq-test-1", p.SequenceUUID(), "every owned problem carries the sequence identity")
	}

	interval, ok := seq.Interval("ED")
	require.True(t, ok)
	assert.Equal(t, time.Hour, interval)

	chron, ok := seq.Chronology("UC")
	require.True(t, ok)
	assert.Equal(t, model.ChronologyConsecutive, chron.Kind)
}

func TestNewSimulationSequence_MissingIntervalEntry(t *testing.T) {
	problems := []model.Problem{
		model.NewOperationsProblem("UC", 48),
		model.NewOperationsProblem("ED", 12),
	}
	seq, err := NewSimulationSequence(problems, []IntervalEntry{entry("UC", 24*time.Hour)})
	require.Error(t, err)
	assert.Nil(t, seq)
	assert.Equal(t, ErrCodeMissingInterval, ConfigCodeOf(err))
	assert.Contains(t, err.Error(), "ED")

	// Construction failed: no problem may carry a stamp.
	for _, p := range problems {
		assert.Empty(t, p.SequenceUUID())
	}
}

func TestNewSimulationSequence_IntervalForUnknownProblem(t *testing.T) {
	_, err := NewSimulationSequence(
		[]model.Problem{model.NewOperationsProblem("UC", 48)},
		ucEdIntervals(),
	)
	require.Error(t, err)
	assert.Equal(t, ErrCodeMissingInterval, ConfigCodeOf(err))
	assert.Contains(t, err.Error(), "ED")
}

func TestNewSimulationSequence_FeedforwardWithoutChronology(t *testing.T) {
	ffs := map[model.FeedforwardKey]model.Feedforward{
		model.NewFeedforwardKey("ED", "variable", "ThermalStandard"): {Kind: model.FeedforwardSemiContinuous},
	}

	_, err := NewSimulationSequence(ucEdProblems(), ucEdIntervals(), WithFeedforwards(ffs))
	require.Error(t, err)
	assert.Equal(t, ErrCodeMissingChronology, ConfigCodeOf(err))
	assert.Contains(t, err.Error(), "ED")
}

func TestNewSimulationSequence_FeedforwardWithChronologyPasses(t *testing.T) {
	ffs := map[model.FeedforwardKey]model.Feedforward{
		model.NewFeedforwardKey("ED", "variable", "ThermalStandard"): {Kind: model.FeedforwardSemiContinuous},
	}

	seq, err := NewSimulationSequence(ucEdProblems(), ucEdIntervals(),
		WithFeedforwards(ffs),
		WithFeedforwardChronologies(ucEdChronologies()),
	)
	require.NoError(t, err)

	targeted := seq.Feedforwards("ED")
	require.Len(t, targeted, 1)
	assert.Equal(t, []string{"UC"}, seq.ChronologySources("ED"))

	chron, ok := seq.FeedforwardChronology("UC", "ED")
	require.True(t, ok)
	assert.Equal(t, 24, chron.Periods)
}

func TestNewSimulationSequence_SingleProblemDowngradesInterChronology(t *testing.T) {
	seq, err := NewSimulationSequence(
		[]model.Problem{model.NewOperationsProblem("UC", 48)},
		[]IntervalEntry{entry("UC", 24*time.Hour)},
		WithInitialConditionChronology(model.InterProblemChronology),
	)
	require.NoError(t, err, "downgrade is advisory, not an error")
	assert.Equal(t, model.IntraProblemChronology, seq.InitialConditionChronology())
}

func TestNewSimulationSequence_MultiProblemKeepsInterChronology(t *testing.T) {
	seq, err := NewSimulationSequence(ucEdProblems(), ucEdIntervals(),
		WithFeedforwardChronologies(ucEdChronologies()))
	require.NoError(t, err)
	assert.Equal(t, model.InterProblemChronology, seq.InitialConditionChronology())
}

func TestNewSimulationSequence_RejectsMultiProblemStatusCache(t *testing.T) {
	_, err := NewSimulationSequence(ucEdProblems(), ucEdIntervals(),
		WithFeedforwardChronologies(ucEdChronologies()),
		WithCaches(model.NewCacheKey(model.CacheTimeStatusChange, "UC", "ED")),
	)
	require.Error(t, err)
	assert.Equal(t, ErrCodeCacheScope, ConfigCodeOf(err))
}

func TestNewSimulationSequence_AllowsSingleProblemStatusCache(t *testing.T) {
	seq, err := NewSimulationSequence(ucEdProblems(), ucEdIntervals(),
		WithFeedforwardChronologies(ucEdChronologies()),
		WithCaches(
			model.NewCacheKey(model.CacheTimeStatusChange, "UC"),
			model.NewCacheKey(model.CacheStoredEnergy, "UC", "ED"),
		),
	)
	require.NoError(t, err)
	assert.Len(t, seq.Caches(), 2)
}

func TestNewSimulationSequence_CacheOverUnknownProblem(t *testing.T) {
	_, err := NewSimulationSequence(ucEdProblems(), ucEdIntervals(),
		WithFeedforwardChronologies(ucEdChronologies()),
		WithCaches(model.NewCacheKey(model.CacheStoredEnergy, "AGC")),
	)
	require.Error(t, err)
	assert.Equal(t, ErrCodeMissingInterval, ConfigCodeOf(err))
	assert.Contains(t, err.Error(), "AGC")
}

func TestNewSimulationSequence_IdempotentModuloUUID(t *testing.T) {
	build := func(id string) *SimulationSequence {
		seq, err := NewSimulationSequence(ucEdProblems(), ucEdIntervals(),
			WithFeedforwardChronologies(ucEdChronologies()),
			WithUUIDSource(testutil.NewFixedUUIDSource(id)),
		)
		require.NoError(t, err)
		return seq
	}

	a := build("uuid-a")
	b := build("uuid-b")

	assert.NotEqual(t, a.UUID(), b.UUID())
	assert.Equal(t, a.ExecutionOrder(), b.ExecutionOrder())
	assert.Equal(t, a.ExecutionsByProblem(), b.ExecutionsByProblem())
	assert.Equal(t, a.SpecHash(), b.SpecHash(), "fingerprint ignores the minted UUID")
}

func TestSimulationSequence_ExecutionOrderIsACopy(t *testing.T) {
	seq, err := NewSimulationSequence(ucEdProblems(), ucEdIntervals(),
		WithFeedforwardChronologies(ucEdChronologies()))
	require.NoError(t, err)

	order := seq.ExecutionOrder()
	order[0] = 99
	assert.NotEqual(t, 99, seq.ExecutionOrder()[0])
}

func TestSimulationSequence_ExecutionIndex(t *testing.T) {
	seq, err := NewSimulationSequence(ucEdProblems(), ucEdIntervals(),
		WithFeedforwardChronologies(ucEdChronologies()))
	require.NoError(t, err)

	assert.Equal(t, 0, seq.CurrentExecutionIndex())
	assert.Equal(t, 1, seq.AdvanceExecutionIndex())
	assert.Equal(t, 2, seq.AdvanceExecutionIndex())
	assert.Equal(t, 2, seq.CurrentExecutionIndex())
}

func TestValidateForSteps_SyncWindowFits(t *testing.T) {
	seq, err := NewSimulationSequence(ucEdProblems(), ucEdIntervals(),
		WithFeedforwardChronologies(ucEdChronologies()))
	require.NoError(t, err)

	// ED executes 24 times per step; a 24-period window divides any
	// positive step count's total evenly.
	assert.NoError(t, seq.ValidateForSteps(1))
	assert.NoError(t, seq.ValidateForSteps(7))
}

func TestValidateForSteps_WindowExceedsTotal(t *testing.T) {
	seq, err := NewSimulationSequence(ucEdProblems(), ucEdIntervals(),
		WithFeedforwardChronologies(map[model.ChronologyPair]model.Chronology{
			model.NewChronologyPair("UC", "ED"): model.Synchronize(48),
		}))
	require.NoError(t, err)

	err = seq.ValidateForSteps(1)
	require.Error(t, err, "a 48-period window cannot be honored in 24 executions")
	assert.Equal(t, ErrCodeSyncWindow, ConfigCodeOf(err))

	assert.NoError(t, seq.ValidateForSteps(2), "two steps give 48 executions")
}

func TestValidateForSteps_WindowMustDivideTotal(t *testing.T) {
	seq, err := NewSimulationSequence(ucEdProblems(), ucEdIntervals(),
		WithFeedforwardChronologies(map[model.ChronologyPair]model.Chronology{
			model.NewChronologyPair("UC", "ED"): model.Synchronize(18),
		}))
	require.NoError(t, err)

	err = seq.ValidateForSteps(1)
	require.Error(t, err, "18 does not divide 24")
	assert.Equal(t, ErrCodeSyncWindow, ConfigCodeOf(err))

	assert.NoError(t, seq.ValidateForSteps(3), "three steps give 72 executions, divisible by 18")
}

func TestValidateForSteps_DisconnectedProblems(t *testing.T) {
	problems := []model.Problem{
		model.NewOperationsProblem("DA", 48),
		model.NewOperationsProblem("HA", 24),
		model.NewOperationsProblem("RT", 12),
	}
	intervals := []IntervalEntry{
		entry("DA", 24*time.Hour),
		entry("HA", 4*time.Hour),
		entry("RT", time.Hour),
	}

	// Only DA->HA is linked; RT is stranded.
	seq, err := NewSimulationSequence(problems, intervals,
		WithFeedforwardChronologies(map[model.ChronologyPair]model.Chronology{
			model.NewChronologyPair("DA", "HA"): model.Consecutive(),
		}))
	require.NoError(t, err)

	err = seq.ValidateForSteps(2)
	require.Error(t, err)
	assert.Equal(t, ErrCodeDisconnected, ConfigCodeOf(err))
	assert.Contains(t, err.Error(), "RT")

	// Linking HA->RT connects the whole chain.
	seq, err = NewSimulationSequence(problems, intervals,
		WithFeedforwardChronologies(map[model.ChronologyPair]model.Chronology{
			model.NewChronologyPair("DA", "HA"): model.Consecutive(),
			model.NewChronologyPair("HA", "RT"): model.RecedingHorizon(),
		}))
	require.NoError(t, err)
	assert.NoError(t, seq.ValidateForSteps(2))
}

func TestValidateForSteps_SingleProblemNeverDisconnected(t *testing.T) {
	seq, err := NewSimulationSequence(
		[]model.Problem{model.NewOperationsProblem("UC", 48)},
		[]IntervalEntry{entry("UC", 24*time.Hour)},
	)
	require.NoError(t, err)
	assert.NoError(t, seq.ValidateForSteps(10))
}

func TestValidateForSteps_RejectsNonPositiveSteps(t *testing.T) {
	seq, err := NewSimulationSequence(ucEdProblems(), ucEdIntervals(),
		WithFeedforwardChronologies(ucEdChronologies()))
	require.NoError(t, err)
	assert.Error(t, seq.ValidateForSteps(0))
}

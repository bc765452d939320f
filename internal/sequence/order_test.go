package sequence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambuddhac/powersim/internal/model"
)

func mustTable(t *testing.T, entries ...IntervalEntry) *IntervalTable {
	t.Helper()
	table, err := NewIntervalTable(entries)
	require.NoError(t, err)
	return table
}

func entry(name string, interval time.Duration) IntervalEntry {
	return IntervalEntry{Problem: name, Interval: interval, Chronology: model.Consecutive()}
}

func TestResolveExecutionOrder_SingleProblem(t *testing.T) {
	table := mustTable(t, entry("UC", 24*time.Hour))

	plan, err := ResolveExecutionOrder(table)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, plan.Order)
	assert.Equal(t, map[int]int{1: 1}, plan.TallyExecutions())
}

func TestResolveExecutionOrder_TwoProblems_24to1(t *testing.T) {
	table := mustTable(t,
		entry("UC", 24*time.Hour),
		entry("ED", time.Hour),
	)

	plan, err := ResolveExecutionOrder(table)
	require.NoError(t, err)

	require.Len(t, plan.Order, 25)
	counts := plan.TallyExecutions()
	assert.Equal(t, 1, counts[1])
	assert.Equal(t, 24, counts[2])

	// Parent-after-children: the coarse problem's own tick closes the step
	// after its 24 children.
	for i := 0; i < 24; i++ {
		assert.Equal(t, 2, plan.Order[i], "tick %d should be the fine problem", i)
	}
	assert.Equal(t, 1, plan.Order[24], "the coarse tick must terminate the step")
}

func TestResolveExecutionOrder_ThreeProblems_96_4_1(t *testing.T) {
	table := mustTable(t,
		entry("DA", 96*time.Hour),
		entry("HA", 4*time.Hour),
		entry("RT", time.Hour),
	)

	plan, err := ResolveExecutionOrder(table)
	require.NoError(t, err)

	// Ratios 24 and 4: multipliers 1, 24, 96; length 1+24+96.
	assert.Equal(t, []int{1, 24, 4}, plan.Ratios)
	assert.Equal(t, []int{1, 24, 96}, plan.Multipliers)
	require.Len(t, plan.Order, 121)

	counts := plan.TallyExecutions()
	assert.Equal(t, 1, counts[1])
	assert.Equal(t, 24, counts[2])
	assert.Equal(t, 96, counts[3])

	// Each middle-problem tick closes a full cycle of 4 innermost ticks.
	assert.Equal(t, []int{3, 3, 3, 3, 2}, plan.Order[:5])
	assert.Equal(t, 1, plan.Order[120])
}

func TestResolveExecutionOrder_ThreeProblems_16_4_1(t *testing.T) {
	table := mustTable(t,
		entry("DA", 16*time.Hour),
		entry("HA", 4*time.Hour),
		entry("RT", time.Hour),
	)

	plan, err := ResolveExecutionOrder(table)
	require.NoError(t, err)
	assert.Len(t, plan.Order, 1+4+16)
}

func TestResolveExecutionOrder_RoundTrip_TallyMatchesMultipliers(t *testing.T) {
	table := mustTable(t,
		entry("DA", 48*time.Hour),
		entry("HA", 6*time.Hour),
		entry("RT", 30*time.Minute),
	)

	plan, err := ResolveExecutionOrder(table)
	require.NoError(t, err)

	counts := plan.TallyExecutions()
	for k, m := range plan.Multipliers {
		assert.Equal(t, m, counts[k+1], "tally for problem %d must match the derived multiplier", k+1)
	}
}

func TestResolveExecutionOrder_InexactRatio(t *testing.T) {
	table := mustTable(t,
		entry("UC", 24*time.Hour),
		entry("ED", 5*time.Hour),
	)

	plan, err := ResolveExecutionOrder(table)
	require.Error(t, err)
	assert.Nil(t, plan, "no execution order may be returned on a fractional ratio")
	assert.True(t, IsConfigurationError(err))
	assert.Equal(t, ErrCodeInexactRatio, ConfigCodeOf(err))
	assert.Contains(t, err.Error(), "ED", "the error must name the offending problem")
}

func TestResolveExecutionOrder_Deterministic(t *testing.T) {
	table := mustTable(t,
		entry("UC", 24*time.Hour),
		entry("ED", time.Hour),
	)

	first, err := ResolveExecutionOrder(table)
	require.NoError(t, err)
	second, err := ResolveExecutionOrder(table)
	require.NoError(t, err)

	assert.Equal(t, first.Order, second.Order)
	assert.Equal(t, first.Multipliers, second.Multipliers)
}

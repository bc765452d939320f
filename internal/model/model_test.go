package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChronology_Validate(t *testing.T) {
	assert.NoError(t, Consecutive().Validate())
	assert.NoError(t, RecedingHorizon().Validate())
	assert.NoError(t, FullHorizon().Validate())
	assert.NoError(t, Synchronize(24).Validate())

	assert.Error(t, Synchronize(0).Validate(), "synchronize needs a positive window")
	assert.Error(t, Chronology{Kind: ChronologyConsecutive, Periods: 4}.Validate(),
		"consecutive must not carry a periods parameter")
	assert.Error(t, Chronology{Kind: "weekly"}.Validate())
}

func TestChronology_String(t *testing.T) {
	assert.Equal(t, "synchronize(24)", Synchronize(24).String())
	assert.Equal(t, "consecutive", Consecutive().String())
}

func TestInitialConditionChronology_Valid(t *testing.T) {
	assert.True(t, IntraProblemChronology.Valid())
	assert.True(t, InterProblemChronology.Valid())
	assert.False(t, InitialConditionChronology("both").Valid())
}

func TestFeedforwardKey_NormalizesTarget(t *testing.T) {
	a := NewFeedforwardKey("ÉD", "variable", "ThermalStandard")
	b := NewFeedforwardKey("ÉD", "variable", "ThermalStandard")
	assert.Equal(t, a, b, "NFC-equivalent target names must produce equal keys")
}

func TestFeedforward_Validate(t *testing.T) {
	assert.NoError(t, Feedforward{Kind: FeedforwardSemiContinuous}.Validate())
	assert.Error(t, Feedforward{Kind: "mystery"}.Validate())
}

func TestCacheKey_SortsAndDeduplicates(t *testing.T) {
	k := NewCacheKey(CacheStoredEnergy, "ED", "UC", "ED")
	assert.Equal(t, []string{"ED", "UC"}, k.Problems)
	assert.Equal(t, "stored_energy:ED,UC", k.ID())
}

func TestCacheKey_Validate(t *testing.T) {
	assert.NoError(t, NewCacheKey(CacheTimeStatusChange, "UC").Validate())
	assert.NoError(t, NewCacheKey(CacheStoredEnergy, "UC", "ED").Validate())

	err := NewCacheKey(CacheTimeStatusChange, "UC", "ED").Validate()
	require.Error(t, err, "time status cache must be single-problem")
	assert.Contains(t, err.Error(), "single problem")

	assert.Error(t, CacheKey{Kind: CacheStoredEnergy}.Validate(), "empty scope")
	assert.Error(t, NewCacheKey("bogus", "UC").Validate())
}

func TestSequenceHash_StableAcrossKeyOrder(t *testing.T) {
	h1, err := SequenceHash(map[string]any{"a": int64(1), "b": "x"})
	require.NoError(t, err)
	h2, err := SequenceHash(map[string]any{"b": "x", "a": int64(1)})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestExecutionID_DomainSeparatedFromSequenceHash(t *testing.T) {
	id, err := ExecutionID("seq-1", 7, "ED", 42)
	require.NoError(t, err)
	assert.Len(t, id, 64)

	other, err := ExecutionID("seq-1", 7, "ED", 43)
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestOperationsProblem_RoundTrip(t *testing.T) {
	p := NewOperationsProblem("UC", 48)
	assert.Equal(t, "UC", p.Name())
	assert.Equal(t, 48, p.Horizon())
	assert.Empty(t, p.SequenceUUID())

	p.SetSequenceUUID("abc")
	assert.Equal(t, "abc", p.SequenceUUID())
}

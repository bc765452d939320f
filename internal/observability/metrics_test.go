package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDriverCollector_RegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewDriverCollector(reg)
	require.NoError(t, err)

	c.IncTick("ED", "ok")
	c.IncTick("ED", "ok")
	c.IncTick("UC", "failed")
	c.SetCurrentStep(3)
	c.ObserveSolve("ED", 25*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.TicksTotal.WithLabelValues("ED", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.TicksTotal.WithLabelValues("UC", "failed")))
	assert.Equal(t, float64(3), testutil.ToFloat64(c.CurrentStep))
}

func TestNewDriverCollector_ReregistrationReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewDriverCollector(reg)
	require.NoError(t, err)
	second, err := NewDriverCollector(reg)
	require.NoError(t, err)

	first.IncTick("ED", "ok")
	second.IncTick("ED", "ok")
	assert.Equal(t, float64(2), testutil.ToFloat64(first.TicksTotal.WithLabelValues("ED", "ok")),
		"both handles must feed the same counter")
}

func TestDriverCollector_NilReceiverIsSafe(t *testing.T) {
	var c *DriverCollector
	assert.NotPanics(t, func() {
		c.IncTick("ED", "ok")
		c.ObserveSolve("ED", time.Second)
		c.SetCurrentStep(1)
	})
	assert.Nil(t, c.Gatherer())
}

package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_MonotonicAndResettable(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(2), clock.Current())

	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
}

func TestDeterministicClock_ConcurrentNextIsUnique(t *testing.T) {
	clock := NewDeterministicClock()
	const workers, calls = 50, 50

	var wg sync.WaitGroup
	seen := make([][]int64, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < calls; i++ {
				seen[w] = append(seen[w], clock.Next())
			}
		}(w)
	}
	wg.Wait()

	all := make(map[int64]bool)
	for _, vals := range seen {
		for _, v := range vals {
			require.False(t, all[v], "duplicate sequence number %d", v)
			all[v] = true
		}
	}
	assert.Len(t, all, workers*calls)
}

func TestFixedUUIDSource_ReturnsIDsInOrder(t *testing.T) {
	src := NewFixedUUIDSource("seq-1", "seq-2")
	assert.Equal(t, "seq-1", src.Generate())
	assert.Equal(t, "seq-2", src.Generate())
	assert.Panics(t, func() { src.Generate() }, "exhausted source must panic")
}

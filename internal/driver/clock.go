package driver

import "sync/atomic"

// Clock is the monotonic logical clock stamping execution records. All log
// ordering uses these sequence numbers, never wall-clock timestamps, so a
// replayed run produces an identical log.
//
// Safe for concurrent use, though the driver's single-writer loop is
// normally the only caller of Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a known position.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

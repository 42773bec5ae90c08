package harness

import "sync/atomic"

// Clock is the monotonic logical clock that stamps trace events.
//
// Each scenario owns its own clock, so seq restarts at 1 per scenario and
// traces of the same scenario compare equal across runs.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

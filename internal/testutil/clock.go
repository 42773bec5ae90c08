package testutil

import (
	"sync"
	"time"
)

// Epoch is the instant DeterministicClock starts from.
var Epoch = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

// DeterministicClock is a thread-safe fake time source. Every call to Now
// advances it by a fixed step, so durations computed from two readings are
// stable across runs and golden files stay byte-identical.
type DeterministicClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewDeterministicClock creates a clock at Epoch that advances by step on
// every reading. A zero step freezes time.
func NewDeterministicClock(step time.Duration) *DeterministicClock {
	return &DeterministicClock{now: Epoch, step: step}
}

// Now returns the current instant and advances the clock.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Current returns the current instant without advancing.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to Epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = Epoch
}

package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtEpoch(t *testing.T) {
	clock := NewDeterministicClock(time.Second)
	assert.Equal(t, Epoch, clock.Current())
}

func TestDeterministicClock_NowAdvancesByStep(t *testing.T) {
	clock := NewDeterministicClock(10 * time.Millisecond)

	first := clock.Now()
	second := clock.Now()

	assert.Equal(t, Epoch, first)
	assert.Equal(t, 10*time.Millisecond, second.Sub(first))
	assert.Equal(t, Epoch.Add(20*time.Millisecond), clock.Current())
}

func TestDeterministicClock_ZeroStepFreezes(t *testing.T) {
	clock := NewDeterministicClock(0)
	assert.Equal(t, clock.Now(), clock.Now())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock(time.Minute)
	clock.Now()
	clock.Now()

	clock.Reset()
	assert.Equal(t, Epoch, clock.Current())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock(time.Millisecond)
	const goroutines = 50
	const calls = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	seen := make(chan time.Time, goroutines*calls)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				seen <- clock.Now()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[time.Time]bool)
	for ts := range seen {
		require.False(t, unique[ts], "duplicate reading %v", ts)
		unique[ts] = true
	}
	assert.Len(t, unique, goroutines*calls)
}

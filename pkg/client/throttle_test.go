package client

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottle_LeadingEdge(t *testing.T) {
	throttle := NewThrottle(100 * time.Millisecond)

	executed := 0
	for i := 0; i < 5; i++ {
		throttle.Do(func() { executed++ })
	}

	// First call fires immediately, the burst is coalesced to it.
	assert.Equal(t, 1, executed)
}

func TestThrottle_ExecutesAfterWindowElapsed(t *testing.T) {
	throttle := NewThrottle(40 * time.Millisecond)

	executed := 0
	assert.True(t, throttle.Do(func() { executed++ }))
	assert.False(t, throttle.Do(func() { executed++ }))

	time.Sleep(60 * time.Millisecond)

	assert.True(t, throttle.Do(func() { executed++ }))
	assert.Equal(t, 2, executed)
}

func TestThrottle_WindowMeasuredFromLastExecutedCall(t *testing.T) {
	throttle := NewThrottle(80 * time.Millisecond)

	executed := 0
	throttle.Do(func() { executed++ })

	// Dropped calls must not extend the window.
	time.Sleep(50 * time.Millisecond)
	assert.False(t, throttle.Do(func() { executed++ }))
	time.Sleep(50 * time.Millisecond)

	assert.True(t, throttle.Do(func() { executed++ }))
	assert.Equal(t, 2, executed)
}

func TestThrottle_DefaultWindow(t *testing.T) {
	throttle := NewThrottle(0)
	assert.Equal(t, DefaultThrottleWindow, throttle.window)

	throttle = NewThrottle(-time.Second)
	assert.Equal(t, DefaultThrottleWindow, throttle.window)
}

func TestThrottle_ConcurrentBurstExecutesOnce(t *testing.T) {
	throttle := NewThrottle(time.Second)

	var mu sync.Mutex
	executed := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			throttle.Do(func() {
				mu.Lock()
				executed++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, executed)
}

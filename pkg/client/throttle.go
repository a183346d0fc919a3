package client

import (
	"sync"
	"time"
)

// DefaultThrottleWindow is the window applied to user-triggered
// mutations when none is configured.
const DefaultThrottleWindow = time.Second

// Throttle is a leading-edge rate limiter: the first call in a window
// executes immediately, later calls are dropped until the window has
// elapsed since the last executed call. It exists because action
// buttons can be tapped repeatedly while a round-trip is pending, and
// duplicate submissions would duplicate server-side side effects.
type Throttle struct {
	mu     sync.Mutex
	window time.Duration
	last   time.Time
	now    func() time.Time
}

// NewThrottle creates a throttle. A non-positive window falls back to
// DefaultThrottleWindow.
func NewThrottle(window time.Duration) *Throttle {
	if window <= 0 {
		window = DefaultThrottleWindow
	}
	return &Throttle{
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether a call at this instant executes. The decision
// is synchronous: a dropped call never reaches the network.
func (t *Throttle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.window {
		return false
	}
	t.last = now
	return true
}

// Do runs fn when the throttle allows it and reports whether it ran.
func (t *Throttle) Do(fn func()) bool {
	if !t.Allow() {
		return false
	}
	fn()
	return true
}

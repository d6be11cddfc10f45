package oauth

import (
	"sync"
	"time"
)

// TimeoutGuard is a watchdog that runs a function once a deadline passes
// unless it is cancelled first.
type TimeoutGuard struct {
	mu       sync.Mutex
	timer    *time.Timer
	fired    bool
	canceled bool
	done     chan struct{}
	doneOnce sync.Once
}

// NewTimeoutGuard creates an idle guard.
func NewTimeoutGuard() *TimeoutGuard {
	return &TimeoutGuard{done: make(chan struct{})}
}

// Start arms the guard. fn runs on its own goroutine after deadline, at most
// once. Starting a guard twice, or after Cancel, has no effect.
func (g *TimeoutGuard) Start(deadline time.Duration, fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.timer != nil || g.canceled {
		return
	}
	g.timer = time.AfterFunc(deadline, func() {
		g.mu.Lock()
		if g.canceled {
			g.mu.Unlock()
			return
		}
		g.fired = true
		g.mu.Unlock()

		defer g.finish()
		fn()
	})
}

// Cancel disarms the guard. It is idempotent and a no-op once the guard has
// fired.
func (g *TimeoutGuard) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fired || g.canceled {
		return
	}
	g.canceled = true
	if g.timer != nil {
		g.timer.Stop()
	}
	g.finish()
}

// Fired reports whether the deadline passed before Cancel.
func (g *TimeoutGuard) Fired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fired
}

// Done is closed when the guard is cancelled or its function has returned.
func (g *TimeoutGuard) Done() <-chan struct{} {
	return g.done
}

func (g *TimeoutGuard) finish() {
	g.doneOnce.Do(func() { close(g.done) })
}

package debounce

import (
	"sync"
	"time"
)

// Coalescer holds at most one pending action. Each Trigger cancels the
// previous countdown and restarts it, so only the last action before a full
// quiet window fires. The slot is global: triggers for different subjects
// share it and supersede each other.
type Coalescer struct {
	mu     sync.Mutex
	window time.Duration
	timer  *time.Timer
}

func New(window time.Duration) *Coalescer {
	return &Coalescer{window: window}
}

// Trigger schedules fn to run after the quiet window, superseding any
// pending action. fn runs on a timer goroutine.
func (c *Coalescer) Trigger(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.window, func() {
		c.mu.Lock()
		c.timer = nil
		c.mu.Unlock()
		fn()
	})
}

// Stop cancels the pending action, if any, without firing it.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Pending reports whether an action is waiting for the window to elapse.
func (c *Coalescer) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

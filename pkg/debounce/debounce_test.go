package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCoalescerFiresLastActionOnce(t *testing.T) {
	t.Parallel()

	c := New(30 * time.Millisecond)
	var fired atomic.Int32
	var last atomic.Int32

	for i := 1; i <= 5; i++ {
		val := int32(i)
		c.Trigger(func() {
			fired.Add(1)
			last.Store(val)
		})
	}

	time.Sleep(120 * time.Millisecond)

	if got := fired.Load(); got != 1 {
		t.Fatalf("expected exactly one firing, got %d", got)
	}
	if got := last.Load(); got != 5 {
		t.Fatalf("expected the last trigger to win, got %d", got)
	}
}

func TestCoalescerStopCancelsPending(t *testing.T) {
	t.Parallel()

	c := New(30 * time.Millisecond)
	var fired atomic.Int32
	c.Trigger(func() { fired.Add(1) })

	if !c.Pending() {
		t.Fatal("expected a pending action after Trigger")
	}
	c.Stop()
	if c.Pending() {
		t.Fatal("expected no pending action after Stop")
	}

	time.Sleep(80 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("expected no firing after Stop, got %d", got)
	}
}

func TestCoalescerRestartsWindowPerTrigger(t *testing.T) {
	t.Parallel()

	c := New(50 * time.Millisecond)
	var fired atomic.Int32

	c.Trigger(func() { fired.Add(1) })
	time.Sleep(30 * time.Millisecond)
	c.Trigger(func() { fired.Add(1) })
	time.Sleep(30 * time.Millisecond)

	// 60ms elapsed overall but only 30ms since the last trigger.
	if got := fired.Load(); got != 0 {
		t.Fatalf("expected the restarted window to hold back firing, got %d", got)
	}

	time.Sleep(60 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("expected a single firing after quiescence, got %d", got)
	}
}

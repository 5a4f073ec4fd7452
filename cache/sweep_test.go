package cache

import (
	"testing"
	"time"
)

// removeExpired with a fake clock: only entries past their deadline go,
// and the tag index goes with them.
func TestSweep_RemoveExpired(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{t: 1}
	c := New[string, string](Options[string, string]{
		Capacity:      16,
		SweepInterval: -1,
		Clock:         clk,
	})
	t.Cleanup(func() { _ = c.Close() })
	s := c.(*store[string, string])

	c.SetTagged("dead1", "v", 10*time.Millisecond, "doomed")
	c.SetTagged("dead2", "v", 20*time.Millisecond, "doomed")
	c.SetWithTTL("alive", "v", time.Hour)
	c.Set("forever", "v") // no TTL configured at all

	clk.add(30 * time.Millisecond)

	if got := s.removeExpired(); got != 2 {
		t.Fatalf("removeExpired want 2, got %d", got)
	}
	if c.Len() != 2 {
		t.Fatalf("Len want 2, got %d", c.Len())
	}
	if !c.Has("alive") || !c.Has("forever") {
		t.Fatal("unexpired entries must survive the sweep")
	}
	if n := c.InvalidateByTags("doomed"); n != 0 {
		t.Fatalf("tag index must not outlive swept entries, removed %d", n)
	}
}

// A second sweep with nothing expired is a no-op.
func TestSweep_Idempotent(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{t: 1}
	c := New[string, string](Options[string, string]{
		Capacity:      16,
		SweepInterval: -1,
		Clock:         clk,
	})
	t.Cleanup(func() { _ = c.Close() })
	s := c.(*store[string, string])

	c.SetWithTTL("k", "v", 10*time.Millisecond)
	clk.add(20 * time.Millisecond)

	if got := s.removeExpired(); got != 1 {
		t.Fatalf("first sweep want 1, got %d", got)
	}
	if got := s.removeExpired(); got != 0 {
		t.Fatalf("second sweep want 0, got %d", got)
	}
}

// The background loop reclaims write-once-never-read keys on its own.
// Real clock: generous windows keep this stable on slow machines.
func TestSweep_BackgroundLoop(t *testing.T) {
	t.Parallel()

	c := New[string, string](Options[string, string]{
		Capacity:      16,
		SweepInterval: 10 * time.Millisecond,
	})
	t.Cleanup(func() { _ = c.Close() })

	c.SetWithTTL("unread", "v", 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for c.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("sweep did not reclaim the expired entry, Len=%d", c.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Close stops the sweep: no ticks run after Close returns.
func TestSweep_StoppedByClose(t *testing.T) {
	t.Parallel()

	c := New[string, string](Options[string, string]{
		Capacity:      16,
		SweepInterval: time.Millisecond,
	})
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// The sweep goroutine has been joined; nothing left to race with.
	// A second Close stays a no-op.
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

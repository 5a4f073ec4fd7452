//go:build go1.18

package cache

import (
	"strings"
	"testing"
)

// Fuzz basic Set/Get/Remove and tag semantics under arbitrary string
// inputs. Guards against panics and ensures core invariants hold.
// NOTE: We cap key/value lengths to avoid pathological memory usage
// during fuzzing (this does not weaken the invariants we check).
func FuzzCache_SetGetRemove(f *testing.F) {
	// Seed corpus: empty, ASCII, Unicode, long strings.
	f.Add("", "", "")
	f.Add("a", "1", "t")
	f.Add("b", "2", "group")
	f.Add("αβγ", "δ", "ω")
	f.Add("emoji🙂", "🙂🙂", "🙂")
	f.Add("long", strings.Repeat("x", 1024), "tag")

	f.Fuzz(func(t *testing.T, k, v, tag string) {
		// Cap lengths to keep memory bounded during fuzzing.
		const limit = 1 << 12 // 4096
		if len(k) > limit {
			k = k[:limit]
		}
		if len(v) > limit {
			v = v[:limit]
		}
		if len(tag) > limit {
			tag = tag[:limit]
		}

		c := New[string, string](Options[string, string]{
			Capacity:      16,
			SweepInterval: -1,
		})
		t.Cleanup(func() { _ = c.Close() })

		// Set -> Get must return the same value.
		c.Set(k, v)
		got, ok := c.Get(k)
		if !ok || got != v {
			t.Fatalf("after Set/Get: want %q, got %q ok=%v", v, got, ok)
		}

		// Remove must delete and return true once.
		if !c.Remove(k) {
			t.Fatalf("Remove must return true")
		}
		if _, ok := c.Get(k); ok {
			t.Fatalf("key must be absent after Remove")
		}
		if c.Remove(k) {
			t.Fatalf("second Remove must return false")
		}

		// A tagged insert must be reachable through its tag exactly once.
		c.SetTagged(k, v, 0, tag)
		if !c.Has(k) {
			t.Fatalf("tagged entry must be present")
		}
		if n := c.InvalidateByTags(tag); n != 1 {
			t.Fatalf("InvalidateByTags want 1, got %d", n)
		}
		if n := c.InvalidateByTags(tag); n != 0 {
			t.Fatalf("tag index must be empty after invalidation, got %d", n)
		}
		if c.Len() != 0 {
			t.Fatalf("store must be empty, Len=%d", c.Len())
		}
	})
}

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStats_HitRateRounding(t *testing.T) {
	t.Parallel()

	c := newTestCache[string](t, 10, 0, nil)
	c.Set("a", "v")

	c.Get("a") // hit
	c.Get("a") // hit
	c.Get("b") // miss

	st := c.Stats()
	assert.Equal(t, int64(2), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, 66.67, st.HitRate) // 2/3 -> 66.666… -> 66.67
	assert.Equal(t, 1, st.Size)
}

func TestStats_ZeroLookups(t *testing.T) {
	t.Parallel()

	c := newTestCache[string](t, 10, 0, nil)
	st := c.Stats()
	assert.Zero(t, st.Hits)
	assert.Zero(t, st.Misses)
	assert.Zero(t, st.HitRate)
}

// Has is a presence probe: it must not move the hit/miss counters.
func TestStats_HasDoesNotCount(t *testing.T) {
	t.Parallel()

	c := newTestCache[string](t, 10, 0, nil)
	c.Set("a", "v")

	c.Has("a")
	c.Has("missing")

	st := c.Stats()
	assert.Zero(t, st.Hits)
	assert.Zero(t, st.Misses)
}

// An expired Get is a miss, and the lazy removal shows up in Size.
func TestStats_ExpiredGetIsMiss(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{t: 1}
	c := newTestCache[string](t, 10, 0, clk)

	c.SetWithTTL("a", "v", 10*time.Millisecond)
	clk.add(20 * time.Millisecond)

	// Until touched or swept, the expired entry still counts toward Size.
	assert.Equal(t, 1, c.Stats().Size)

	_, ok := c.Get("a")
	assert.False(t, ok)

	st := c.Stats()
	assert.Equal(t, int64(0), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, 0, st.Size)
}

// Counters are cumulative for the life of the store: Clear, Remove and
// invalidation leave them alone.
func TestStats_SurviveClearAndRemoval(t *testing.T) {
	t.Parallel()

	c := newTestCache[string](t, 10, 0, nil)
	c.SetTagged("a", "v", 0, "g")
	c.Get("a") // hit
	c.Get("x") // miss

	c.Remove("a")
	c.InvalidateByTags("g")
	c.Clear()

	st := c.Stats()
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, 50.0, st.HitRate)
	assert.Equal(t, 0, st.Size)
}

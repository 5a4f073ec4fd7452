package cache

import "time"

// Defaults used by the process-wide instance (see Default) and by callers
// that want a reasonable response-memoization configuration without tuning.
const (
	// DefaultCapacity bounds the shared instance to a small working set;
	// API-response payloads are few but large.
	DefaultCapacity = 100

	// DefaultTTL is how long a memoized response stays fresh.
	DefaultTTL = 5 * time.Minute

	// DefaultSweepInterval is how often the background sweep reclaims
	// expired-but-unread entries.
	DefaultSweepInterval = time.Minute
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictCapacity — the LRU entry was removed to admit a new key.
	EvictCapacity EvictReason = iota
	// EvictTTL — expired by TTL (lazily on access or by the sweep).
	EvictTTL
	// EvictTags — removed by InvalidateByTags.
	EvictTags
)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures the cache behavior. Zero values are safe except for
// Capacity; sane defaults are applied in New():
//   - nil Metrics       => NoopMetrics
//   - SweepInterval = 0 => DefaultSweepInterval
type Options[K comparable, V any] struct {
	// Capacity is the entry count limit. Must be > 0; New panics otherwise.
	// When a Set on a new key would exceed it, the least-recently-used
	// entry is evicted first.
	Capacity int

	// DefaultTTL applies to Set and to SetWithTTL/SetTagged calls with a
	// non-positive ttl. Zero means entries only expire when a per-call TTL
	// is given.
	DefaultTTL time.Duration

	// SweepInterval is the period of the background sweep that removes
	// expired entries regardless of access. Zero selects
	// DefaultSweepInterval; a negative value disables the sweep entirely
	// (lazy expiration on read still applies).
	SweepInterval time.Duration

	// OnEvict is called for every eviction under the store lock;
	// keep callbacks lightweight. Explicit Remove/Clear do not fire it.
	OnEvict func(k K, v V, reason EvictReason)

	// Metrics receives Hit/Miss/Evict/Size signals. Nil => NoopMetrics.
	Metrics Metrics

	// Clock allows overriding the time source (tests). Nil => time.Now().
	Clock Clock
}

// Package cache provides a bounded, generic, in-memory cache with LRU
// eviction, per-entry TTL, tag-based bulk invalidation, and hit/miss
// accounting. It is built for API-response memoization: small working
// sets, opaque payloads, and callers that need grouped invalidation when
// upstream data changes.
//
// Design
//
//   - Storage: a single map[K]*node for lookups plus an intrusive MRU↔LRU
//     doubly linked list for recency ordering. All operations are O(1)
//     expected; list order is the recency order, so capacity eviction is
//     deterministic (the tail goes).
//
//   - Concurrency: one RWMutex guards the map, the list and the tag index
//     as a unit. The cache is deliberately not sharded: eviction must
//     remove the globally least-recently-used entry, which per-shard lists
//     cannot provide. Hit/miss counters are padded atomics.
//
//   - TTL: entries carry absolute deadlines (UnixNano). Expiration is lazy
//     on read — Get and Has treat an entry past its deadline as absent and
//     reclaim it on the spot — and active via a background sweep that
//     wakes every Options.SweepInterval and removes expired entries in
//     bounded batches, so write-once-read-never keys cannot pin capacity.
//
//   - Tags: SetTagged attaches labels to an entry; a reverse index (tag →
//     key set) is maintained transactionally with the entry map, making
//     InvalidateByTags proportional to the number of affected entries.
//
//   - Statistics: Get calls are counted as hits or misses for the life of
//     the store (Clear does not reset them); Stats derives the hit rate as
//     a percentage rounded to two decimals. Has is a presence probe and
//     stays out of the accounting.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     By default NoopMetrics is used; plug the Prometheus adapter from
//     metrics/prom to export them.
//
//   - Callbacks: Options.OnEvict(k, v, reason) fires for every eviction
//     (EvictCapacity, EvictTTL or EvictTags). Explicit Remove and Clear
//     are deletions, not evictions, and do not fire it.
//
//   - Lifecycle: Close is idempotent, stops and joins the sweep goroutine,
//     and releases all entries. Operations on a closed cache are safe
//     no-ops reporting absence.
//
// Basic usage
//
//	c := cache.New[string, []byte](cache.Options[string, []byte]{
//	    Capacity:   1000,
//	    DefaultTTL: 5 * time.Minute,
//	})
//	defer c.Close()
//
//	c.Set("user:42", payload)
//	if v, ok := c.Get("user:42"); ok {
//	    _ = v // cached
//	}
//
// With tags
//
//	c.SetTagged("user:42", payload, 0, "users", "user:42")
//	c.SetTagged("user:43", other, 0, "users")
//	c.InvalidateByTags("users") // both gone
//
// With per-entry TTL
//
//	c.SetWithTTL("token", t, 30*time.Second)
//
// Shared instance
//
// Default() returns a lazily-created process-wide Cache[string, any] for
// ambient use by unrelated call sites; ResetDefault() disposes of it in
// test teardown. The memo package builds memoized functions on top of
// either a private store or the shared one.
package cache

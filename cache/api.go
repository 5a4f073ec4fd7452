package cache

import "time"

// Cache is a bounded in-memory key/value cache with per-entry TTL,
// LRU eviction and tag-based bulk invalidation.
// All methods are safe for concurrent use by multiple goroutines.
//
// Typical complexity for operations is amortized O(1):
// a map lookup plus constant-time list adjustments under the store lock.
// InvalidateByTags is O(number of affected entries) via a reverse index.
type Cache[K comparable, V any] interface {
	// Set inserts or updates k→v with the cache's DefaultTTL (if any).
	// Updating resets the entry's tags to none and promotes it to MRU.
	// Inserting a new key at capacity first evicts the LRU entry.
	Set(k K, v V)

	// SetWithTTL inserts or updates k→v with a per-entry TTL.
	// A non-positive ttl falls back to DefaultTTL.
	SetWithTTL(k K, v V, ttl time.Duration)

	// SetTagged is the full write form: per-entry TTL (non-positive =>
	// DefaultTTL) plus invalidation tags. Replacing an entry drops its
	// previous tag memberships before recording the new ones.
	SetTagged(k K, v V, ttl time.Duration, tags ...string)

	// Get returns the value for k and a presence flag. An entry past its
	// deadline is removed on the spot and reported absent. A hit promotes
	// the entry to MRU. Every call counts toward hit/miss statistics.
	Get(k K) (V, bool)

	// Has reports whether k holds a live entry, with the same expiration
	// semantics as Get, but without touching statistics or recency.
	Has(k K) bool

	// Remove deletes k if present and returns true on success.
	Remove(k K) bool

	// Clear removes every entry and the whole tag index.
	// Statistics counters are untouched.
	Clear()

	// InvalidateByTags removes every entry whose tag set intersects the
	// given tags and returns how many entries were removed. Each entry is
	// removed once even when it matches several of the requested tags.
	InvalidateByTags(tags ...string) int

	// Len returns the number of resident entries. Expired entries that no
	// read or sweep has reclaimed yet are still counted.
	Len() int

	// Stats returns a snapshot of hit/miss accounting and the current size.
	Stats() Stats

	// Close stops the background sweep, waits for it to finish, and
	// releases all entries. It is idempotent; operations on a closed
	// cache are no-ops reporting absence.
	Close() error
}

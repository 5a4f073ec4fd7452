package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/memocache/memocache/internal/util"
)

// store is an in-memory KV store with LRU eviction, TTL expiration and a
// reverse tag index. A single RWMutex guards the entry map, the recency
// list and the tag index as one unit: eviction-then-insert and
// read-then-expire are check-then-act sequences that must not interleave
// with a concurrent mutation.
type store[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu   sync.RWMutex
	m    map[K]*node[K, V]
	head *node[K, V] // MRU
	tail *node[K, V] // LRU
	len  int         // number of resident entries
	cap  int         // entry capacity

	// byTag maps a tag to the set of keys currently holding it.
	// Maintained on every insert/replace/remove so InvalidateByTags is
	// O(affected entries), never O(total entries).
	byTag map[string]map[K]struct{}

	opt Options[K, V]

	closed atomic.Bool

	// Sweep goroutine ownership. Close cancels and joins.
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
}

// New constructs a cache with the provided Options and starts its
// background sweep (unless SweepInterval is negative).
// Defaults:
//   - nil Metrics       -> NoopMetrics
//   - SweepInterval = 0 -> DefaultSweepInterval
func New[K comparable, V any](opt Options[K, V]) Cache[K, V] {
	if opt.Capacity <= 0 {
		panic("cache: Capacity must be > 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.SweepInterval == 0 {
		opt.SweepInterval = DefaultSweepInterval
	}

	s := &store[K, V]{
		m:     make(map[K]*node[K, V], opt.Capacity),
		byTag: make(map[string]map[K]struct{}),
		cap:   opt.Capacity,
		opt:   opt,
	}

	if opt.SweepInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.wg.Add(1)
		go s.sweepLoop(ctx, opt.SweepInterval)
	}

	// return pointer-to-impl as the interface (avoids unexported-return lint)
	return s
}

// ---- Cache[K,V] implementation ----

// Set inserts or updates k→v using DefaultTTL, clearing any previous tags.
func (s *store[K, V]) Set(k K, v V) {
	s.SetTagged(k, v, 0)
}

// SetWithTTL inserts or updates k→v with a per-entry TTL.
// A non-positive ttl falls back to DefaultTTL.
func (s *store[K, V]) SetWithTTL(k K, v V, ttl time.Duration) {
	s.SetTagged(k, v, ttl)
}

// SetTagged inserts or updates k→v with a per-entry TTL (non-positive =>
// DefaultTTL) and invalidation tags. Inserting a new key at capacity first
// evicts the least-recently-used entry; replacing an existing key drops its
// previous tag memberships and promotes it to MRU.
func (s *store[K, V]) SetTagged(k K, v V, ttl time.Duration, tags ...string) {
	if s.closed.Load() {
		return
	}
	exp := s.deadline(ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the lock: a Close that slipped in between the guard
	// above and the lock acquisition has already released the state, and a
	// write must not land in the fresh map.
	if s.closed.Load() {
		return
	}

	if n, ok := s.m[k]; ok {
		// In-place update: retag, refresh deadline, promote.
		s.dropTagsLocked(n)
		n.val = v
		n.exp = exp
		n.tags = tags
		s.addTagsLocked(n)
		s.moveToFront(n)
		s.opt.Metrics.Size(s.len)
		return
	}

	// New entry path: make room first, exactly one eviction per overflow.
	for s.len >= s.cap {
		tail := s.tail
		if tail == nil {
			break
		}
		s.evictNode(tail, EvictCapacity)
	}

	n := &node[K, V]{key: k, val: v, exp: exp, tags: tags}
	s.m[k] = n
	s.insertFront(n)
	s.addTagsLocked(n)
	s.opt.Metrics.Size(s.len)
}

// Get returns the value for k and promotes the entry to MRU.
// An expired entry is removed on the spot and reported as a miss.
func (s *store[K, V]) Get(k K) (V, bool) {
	if s.closed.Load() {
		var zero V
		return zero, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[k]
	if !ok {
		s.misses.Add(1)
		s.opt.Metrics.Miss()
		var zero V
		return zero, false
	}
	if s.expiredLocked(n) {
		s.evictNode(n, EvictTTL)
		s.misses.Add(1)
		s.opt.Metrics.Miss()
		var zero V
		return zero, false
	}

	s.moveToFront(n)
	s.hits.Add(1)
	s.opt.Metrics.Hit()
	return n.val, true
}

// Has reports whether k holds a live entry. Expired entries are reclaimed
// exactly as in Get, but Has neither counts toward hit/miss statistics nor
// refreshes recency: a presence probe must not perturb eviction order.
func (s *store[K, V]) Has(k K) bool {
	if s.closed.Load() {
		return false
	}

	s.mu.RLock()
	n, ok := s.m[k]
	if !ok {
		s.mu.RUnlock()
		return false
	}
	if !s.expiredLocked(n) {
		s.mu.RUnlock()
		return true
	}
	s.mu.RUnlock()

	// Expired: upgrade to the write lock and re-check, since the entry may
	// have been rewritten or removed between the two lock acquisitions.
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.m[k]; ok && s.expiredLocked(n) {
		s.evictNode(n, EvictTTL)
	}
	return false
}

// Remove deletes an entry by key. Returns true if the entry existed.
func (s *store[K, V]) Remove(k K) bool {
	if s.closed.Load() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[k]
	if !ok {
		return false
	}
	s.dropTagsLocked(n)
	s.removeNode(n)
	delete(s.m, k)
	// Note: explicit Remove is not counted as an eviction in metrics.
	s.opt.Metrics.Size(s.len)
	return true
}

// Clear removes every entry and the whole tag index.
// Hit/miss counters are cumulative and survive Clear.
func (s *store[K, V]) Clear() {
	if s.closed.Load() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.opt.Metrics.Size(0)
}

// InvalidateByTags removes every entry whose tag set intersects the given
// tags and returns how many entries were removed.
func (s *store[K, V]) InvalidateByTags(tags ...string) int {
	if s.closed.Load() {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, t := range tags {
		// evictNode unlinks the key from this set while we range over it;
		// deleting the visited element during iteration is safe, and an
		// entry matching several requested tags is gone from the later
		// tags' sets by the time they are visited.
		for k := range s.byTag[t] {
			if n, ok := s.m[k]; ok {
				s.evictNode(n, EvictTags)
				removed++
			}
		}
	}
	if removed > 0 {
		s.opt.Metrics.Size(s.len)
	}
	return removed
}

// Len returns the number of resident entries, including expired entries
// that no read or sweep has reclaimed yet.
func (s *store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.len
}

// Stats returns a snapshot of lookup accounting and the current size.
// The counters are read atomically; hits, misses and size are not required
// to be mutually consistent at a single instant.
func (s *store[K, V]) Stats() Stats {
	h := s.hits.Load()
	m := s.misses.Load()
	return Stats{
		Hits:    h,
		Misses:  m,
		HitRate: hitRate(h, m),
		Size:    s.Len(),
	}
}

// Close stops the background sweep, waits for it to finish, and releases
// all state. Safe to call multiple times; operations on a closed cache are
// no-ops reporting absence.
func (s *store[K, V]) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	// Join the sweep so no background activity touches the state below.
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	return nil
}

// -------------------- internals (mu held) --------------------

func (s *store[K, V]) resetLocked() {
	s.m = make(map[K]*node[K, V], s.cap)
	s.byTag = make(map[string]map[K]struct{})
	s.head, s.tail = nil, nil
	s.len = 0
}

func (s *store[K, V]) expiredLocked(n *node[K, V]) bool {
	if n.exp == 0 {
		return false
	}
	return s.now() >= n.exp
}

func (s *store[K, V]) now() int64 {
	if s.opt.Clock != nil {
		return s.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

// deadline converts a relative TTL into an absolute UnixNano deadline,
// falling back to DefaultTTL when ttl is non-positive. Returns 0 (no
// expiration) only when neither a per-call TTL nor DefaultTTL is set.
func (s *store[K, V]) deadline(ttl time.Duration) int64 {
	if ttl <= 0 {
		ttl = s.opt.DefaultTTL
	}
	if ttl <= 0 {
		return 0
	}
	return s.now() + int64(ttl)
}

// addTagsLocked records n's key under each of its tags.
func (s *store[K, V]) addTagsLocked(n *node[K, V]) {
	for _, t := range n.tags {
		set := s.byTag[t]
		if set == nil {
			set = make(map[K]struct{})
			s.byTag[t] = set
		}
		set[n.key] = struct{}{}
	}
}

// dropTagsLocked removes n's key from the tag index, pruning empty sets so
// the index never outlives its members.
func (s *store[K, V]) dropTagsLocked(n *node[K, V]) {
	for _, t := range n.tags {
		set := s.byTag[t]
		if set == nil {
			continue
		}
		delete(set, n.key)
		if len(set) == 0 {
			delete(s.byTag, t)
		}
	}
}

// insertFront inserts n at MRU in O(1).
func (s *store[K, V]) insertFront(n *node[K, V]) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
	s.len++
}

// moveToFront promotes n to MRU in O(1).
func (s *store[K, V]) moveToFront(n *node[K, V]) {
	if n == s.head {
		return
	}
	// detach
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.tail == n {
		s.tail = n.prev
	}
	// insert at head
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
}

// removeNode removes n from the list and updates counters in O(1).
func (s *store[K, V]) removeNode(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.head == n {
		s.head = n.next
	}
	if s.tail == n {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
	s.len--
}

// evictNode removes the node from every structure, updates metrics, and
// fires the OnEvict callback.
func (s *store[K, V]) evictNode(n *node[K, V], reason EvictReason) {
	s.dropTagsLocked(n)
	s.removeNode(n)
	delete(s.m, n.key)
	s.opt.Metrics.Evict(reason)
	if cb := s.opt.OnEvict; cb != nil {
		// Callbacks run under the lock; keep them lightweight.
		cb(n.key, n.val, reason)
	}
}

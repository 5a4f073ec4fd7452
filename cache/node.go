package cache

// node is an intrusive doubly linked list element owned by the store.
// It keeps the key/value alongside list links and the metadata used by
// TTL expiration and tag invalidation.
type node[K comparable, V any] struct {
	key K
	val V

	// Intrusive list links: head is MRU, tail is LRU.
	prev *node[K, V]
	next *node[K, V]

	// Absolute expiration deadline in UnixNano.
	// Zero means "no TTL".
	exp int64

	// Invalidation tags. Nil for untagged entries. The store keeps the
	// reverse tag index in sync with this slice on every mutation.
	tags []string
}

// Package memo turns an arbitrary fallible computation into a memoized one
// backed by a cache.Cache. A wrapped function derives a cache key from its
// argument (structurally, or via a caller-supplied key function), serves
// repeat calls from the cache, and collapses concurrent in-flight calls for
// the same key into a single invocation. Errors propagate unchanged and are
// never cached.
package memo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/memocache/memocache/cache"
	"github.com/memocache/memocache/internal/singleflight"
)

// Func is the shape of a memoizable computation: context-aware, unary,
// fallible. Functions of more arguments go through Wrap2 or a struct
// argument.
type Func[A, V any] func(ctx context.Context, arg A) (V, error)

// Memo is a memoized function with an explicit lifecycle. Most callers use
// Wrap and let the backing store live for the process; tests that create
// many wrappers should Close them to stop the private store's sweep.
type Memo[A, V any] struct {
	fn  Func[A, V]
	cfg config[A, V]

	get   func(key string) (V, bool)
	set   func(key string, v V)
	owned cache.Cache[string, V] // non-nil only for a private store

	sf singleflight.Group[string, V]
}

type config[A, V any] struct {
	keyFn    func(A) string
	prefix   string
	ttl      time.Duration
	tags     []string
	capacity int
	store    cache.Cache[string, V]
	shared   bool
}

// Option customizes a wrapped function.
type Option[A, V any] func(*config[A, V])

// WithKeyFunc supplies the cache-key derivation; its result is used
// verbatim (before WithKeyPrefix). Use it when arguments of different
// shapes share a cache identity, e.g. to ignore a field.
func WithKeyFunc[A, V any](fn func(A) string) Option[A, V] {
	return func(c *config[A, V]) { c.keyFn = fn }
}

// WithKeyPrefix namespaces every derived key. Strongly recommended with
// WithSharedCache, where unrelated call sites share one keyspace.
func WithKeyPrefix[A, V any](prefix string) Option[A, V] {
	return func(c *config[A, V]) { c.prefix = prefix }
}

// WithTTL overrides the backing store's default TTL for results cached by
// this wrapper.
func WithTTL[A, V any](ttl time.Duration) Option[A, V] {
	return func(c *config[A, V]) { c.ttl = ttl }
}

// WithTags attaches invalidation tags to every result cached by this
// wrapper, so call sites can drop its entries via InvalidateByTags.
func WithTags[A, V any](tags ...string) Option[A, V] {
	return func(c *config[A, V]) { c.tags = tags }
}

// WithCapacity sizes the private store (default cache.DefaultCapacity).
// Ignored when WithCache or WithSharedCache routes elsewhere.
func WithCapacity[A, V any](n int) Option[A, V] {
	return func(c *config[A, V]) { c.capacity = n }
}

// WithCache backs the wrapper with a caller-owned store. The caller keeps
// responsibility for closing it.
func WithCache[A, V any](store cache.Cache[string, V]) Option[A, V] {
	return func(c *config[A, V]) { c.store = store }
}

// WithSharedCache routes results through the process-wide cache.Default()
// instance instead of a private store. A cached value whose dynamic type
// does not match V (a key collision with an unrelated call site) is
// treated as a miss and overwritten.
func WithSharedCache[A, V any]() Option[A, V] {
	return func(c *config[A, V]) { c.shared = true }
}

// New builds a memoized form of fn. Unless WithCache or WithSharedCache is
// given, it owns a private store sized by WithCapacity.
func New[A, V any](fn Func[A, V], opts ...Option[A, V]) *Memo[A, V] {
	m := &Memo[A, V]{fn: fn}
	for _, o := range opts {
		o(&m.cfg)
	}

	switch {
	case m.cfg.shared:
		// Resolve Default() per call, not once: a ResetDefault in test
		// teardown must not leave the wrapper bound to a closed store.
		m.get = func(key string) (V, bool) {
			raw, ok := cache.Default().Get(key)
			if !ok {
				var zero V
				return zero, false
			}
			v, ok := raw.(V)
			return v, ok
		}
		m.set = func(key string, v V) {
			cache.Default().SetTagged(key, v, m.cfg.ttl, m.cfg.tags...)
		}
	case m.cfg.store != nil:
		m.bind(m.cfg.store)
	default:
		capacity := m.cfg.capacity
		if capacity <= 0 {
			capacity = cache.DefaultCapacity
		}
		m.owned = cache.New[string, V](cache.Options[string, V]{
			Capacity:   capacity,
			DefaultTTL: cache.DefaultTTL,
		})
		m.bind(m.owned)
	}
	return m
}

func (m *Memo[A, V]) bind(store cache.Cache[string, V]) {
	m.get = store.Get
	m.set = func(key string, v V) {
		store.SetTagged(key, v, m.cfg.ttl, m.cfg.tags...)
	}
}

// Wrap is the function-shaped form of New for callers that only ever call.
func Wrap[A, V any](fn Func[A, V], opts ...Option[A, V]) Func[A, V] {
	return New(fn, opts...).Call
}

// Args2 is the tuple argument Wrap2 feeds through a unary wrapper.
// Custom key functions for two-argument wrappers take this type.
type Args2[A, B any] struct {
	First  A
	Second B
}

// Wrap2 memoizes a two-argument function by packing its arguments into an
// Args2 tuple for key derivation.
func Wrap2[A, B, V any](fn func(ctx context.Context, a A, b B) (V, error), opts ...Option[Args2[A, B], V]) func(ctx context.Context, a A, b B) (V, error) {
	wrapped := Wrap(func(ctx context.Context, args Args2[A, B]) (V, error) {
		return fn(ctx, args.First, args.Second)
	}, opts...)
	return func(ctx context.Context, a A, b B) (V, error) {
		return wrapped(ctx, Args2[A, B]{First: a, Second: b})
	}
}

// Call invokes the memoized function: derive the key, serve a cached
// result if one is live, otherwise run fn exactly once per key (concurrent
// callers for the same key join the in-flight computation) and cache the
// result on success.
func (m *Memo[A, V]) Call(ctx context.Context, arg A) (V, error) {
	key := m.key(arg)

	// fast path
	if v, ok := m.get(key); ok {
		return v, nil
	}

	return m.sf.Do(ctx, key, func() (V, error) {
		// double-check after flight join
		if v, ok := m.get(key); ok {
			return v, nil
		}
		v, err := m.fn(ctx, arg)
		if err == nil {
			m.set(key, v)
		}
		return v, err
	})
}

// Close releases the private store, if this wrapper owns one. Wrappers
// bound to a caller-owned or the shared store have nothing to close.
func (m *Memo[A, V]) Close() error {
	if m.owned == nil {
		return nil
	}
	return m.owned.Close()
}

// key derives the cache key for arg.
func (m *Memo[A, V]) key(arg A) string {
	if m.cfg.keyFn != nil {
		return m.cfg.prefix + m.cfg.keyFn(arg)
	}
	return m.cfg.prefix + structuralKey(arg)
}

// structuralKey serializes arg so that structurally equal arguments yield
// equal keys. json.Marshal sorts map keys, which makes the encoding stable
// for map-shaped arguments; values JSON cannot encode fall back to Go
// syntax formatting.
func structuralKey(arg any) string {
	b, err := json.Marshal(arg)
	if err != nil {
		return fmt.Sprintf("%#v", arg)
	}
	return string(b)
}

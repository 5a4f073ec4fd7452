package cache

import "sync"

// The process-wide instance is constructed lazily and owned by this
// package rather than living as an implicit ambient global: Default hands
// it out, ResetDefault disposes of it. The expected lifecycle is one
// instance for the process lifetime, with ResetDefault called only from
// test teardown.
var (
	defaultMu    sync.Mutex
	defaultCache Cache[string, any]
)

// Default returns the shared process-wide cache, creating it on first use
// with DefaultCapacity, DefaultTTL and DefaultSweepInterval. Unrelated call
// sites share it, so keys should be namespaced (see memo.WithKeyPrefix).
func Default() Cache[string, any] {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCache == nil {
		defaultCache = New[string, any](Options[string, any]{
			Capacity:      DefaultCapacity,
			DefaultTTL:    DefaultTTL,
			SweepInterval: DefaultSweepInterval,
		})
	}
	return defaultCache
}

// ResetDefault closes the shared cache (stopping its sweep) and discards
// it; the next Default call builds a fresh one. Intended for test teardown.
func ResetDefault() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCache == nil {
		return nil
	}
	err := defaultCache.Close()
	defaultCache = nil
	return err
}

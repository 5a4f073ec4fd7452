package cache

import (
	"context"
	"time"
)

// sweepBatch bounds how many expired entries are reclaimed per write-lock
// acquisition, so a large sweep never starves foreground callers.
const sweepBatch = 256

// sweepLoop periodically removes expired entries regardless of access.
// Lazy expiration on read keeps callers correct on its own; the sweep
// exists so keys that are written once and never read again do not occupy
// capacity indefinitely.
func (s *store[K, V]) sweepLoop(ctx context.Context, every time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

// removeExpired reclaims every entry past its deadline and returns how many
// were removed. Candidates are collected under the read lock, then removed
// in bounded batches under the write lock with a re-check, since an entry
// may have been rewritten with a fresh deadline in between.
func (s *store[K, V]) removeExpired() int {
	now := s.now()

	s.mu.RLock()
	var expired []K
	for k, n := range s.m {
		if n.exp != 0 && now >= n.exp {
			expired = append(expired, k)
		}
	}
	s.mu.RUnlock()

	removed := 0
	for start := 0; start < len(expired); start += sweepBatch {
		end := min(start+sweepBatch, len(expired))

		s.mu.Lock()
		for _, k := range expired[start:end] {
			n, ok := s.m[k]
			if !ok || n.exp == 0 || now < n.exp {
				continue
			}
			s.evictNode(n, EvictTTL)
			removed++
		}
		s.opt.Metrics.Size(s.len)
		s.mu.Unlock()
	}
	return removed
}

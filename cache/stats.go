package cache

import "math"

// Stats is a point-in-time snapshot of the store's lookup accounting.
//
// Hits and Misses count Get calls only (Has is a presence probe and leaves
// them alone) and are cumulative for the life of the store: Clear, Remove,
// eviction and expiration never reset them.
type Stats struct {
	Hits   int64
	Misses int64

	// HitRate is Hits/(Hits+Misses) as a percentage, rounded to two
	// decimal places. Zero when no Get has been issued yet.
	HitRate float64

	// Size is the resident entry count at snapshot time. Entries past
	// their deadline that no read or sweep has reclaimed yet are still
	// counted; they disappear once touched or swept.
	Size int
}

// hitRate derives the percentage from raw counters.
func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	rate := float64(hits) / float64(total) * 100
	return math.Round(rate*100) / 100
}

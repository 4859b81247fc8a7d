package components

import "github.com/pthm-cable/bloom/stats"

// Traits holds the flower's metrics in the garden climate and the
// fitness derived from them. Evaluated is false until the first stats
// pass of the flower's generation.
type Traits struct {
	Stats     stats.Stats
	Fitness   float64
	Tolerant  bool    // climate temperature within the flower's range
	Evaluated bool
}

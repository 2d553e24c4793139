package counter

import "sync/atomic"

// Counter is a cumulative byte metric
type Counter interface {
	Value() int64
	RatePerSec() int64

	Add(bytes int64)
}

// Progress returns a progress callback feeding c.
// The callback receives cumulative totals and adds only the growth since
// its previous call, so c may be shared by several copies.
func Progress(c Counter) func(transferred int64) {
	var last int64
	return func(transferred int64) {
		delta := transferred - atomic.SwapInt64(&last, transferred)
		if delta > 0 {
			c.Add(delta)
		}
	}
}

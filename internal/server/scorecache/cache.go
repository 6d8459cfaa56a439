// Package scorecache caches compatibility scores per unordered pair of
// users. Entries remember the profile versions they were computed from, so
// an edit to either profile turns the entry into a miss.
package scorecache

import (
	"context"
	"time"
)

// Cache never fails a caller: backend errors surface as misses and are
// logged by the implementation.
type Cache interface {
	Get(ctx context.Context, a, b string, va, vb time.Time) (int, bool)
	Set(ctx context.Context, a, b string, score int, va, vb time.Time)
	Invalidate(ctx context.Context, a, b string)
}

type entry struct {
	Score     int       `json:"score"`
	LoVersion time.Time `json:"lo_version"`
	HiVersion time.Time `json:"hi_version"`
}

// pairKey orders the pair so (a, b) and (b, a) share one entry, swapping the
// versions along with the ids.
func pairKey(a, b string, va, vb time.Time) (string, time.Time, time.Time) {
	if a > b {
		a, b = b, a
		va, vb = vb, va
	}
	return a + ":" + b, va, vb
}

func (e entry) matches(lo, hi time.Time) bool {
	return e.LoVersion.Equal(lo) && e.HiVersion.Equal(hi)
}

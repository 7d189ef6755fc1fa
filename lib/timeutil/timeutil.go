package timeutil

import (
	"time"

	"github.com/valyala/fastrand"
)

// AddJitterToDuration adds up to 10% random jitter to d and returns the result.
//
// The jitter never exceeds 10 seconds.
func AddJitterToDuration(d time.Duration) time.Duration {
	maxJitter := d / 10
	if maxJitter > 10*time.Second {
		maxJitter = 10 * time.Second
	}
	p := float64(fastrand.Uint32()) / (1 << 32)
	return d + time.Duration(p*float64(maxJitter))
}

package spanpool

import (
	"time"

	"pagetrack/lib/fasttime"
	"pagetrack/lib/flagutil"
	"pagetrack/lib/memtrack"
	"pagetrack/lib/timeutil"
)

var dirtyDecayDuration = flagutil.NewPromDuration("spanpool.dirtyDecayDuration", "10s", "How long a freed span may stay dirty before the purger releases its memory. "+
	"Lower values reduce memory usage at the cost of more page faults on subsequent allocations. Set to 0 to disable background purging")

// purger periodically releases dirty spans which stayed unused
// for at least decay.
func (p *Pool) purger(decay time.Duration) {
	checkInterval := decay / 2
	if checkInterval < time.Millisecond {
		checkInterval = time.Millisecond
	}
	checkInterval = timeutil.AddJitterToDuration(checkInterval)
	t := time.NewTicker(checkInterval)
	defer t.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-t.C:
		}
		p.PurgeIdle(decay)
	}
}

// PurgeIdle releases dirty spans which stayed unused for at least maxIdle.
// PurgeIdle(0) releases every dirty span.
//
// It returns the number of released bytes.
func (p *Pool) PurgeIdle(maxIdle time.Duration) uint64 {
	maxIdleSec := uint64(maxIdle.Seconds())

	// Purging is pool housekeeping performed outside any allocation,
	// so transitions go to the process-wide counters.
	var la *memtrack.Local

	var purged uint64
	p.mu.Lock()
	currentTime := fasttime.UnixTimestamp()
	dst := p.dirty[:0]
	for _, s := range p.dirty {
		if currentTime-s.freedAt < maxIdleSec {
			dst = append(dst, s)
			continue
		}
		la.CountTransition(memtrack.StateDirty, memtrack.StateRetained, s.size)
		p.dirtySpans--
		p.dirtyBytes -= uint64(s.size)
		p.purgedSpans++
		p.purgedBytes += uint64(s.size)
		purged += uint64(s.size)
		// Drop the memory reference. The span header survives so that
		// a late double free on a stale pointer is still detected.
		s.B = nil
	}
	p.dirty = dst
	p.mu.Unlock()
	return purged
}

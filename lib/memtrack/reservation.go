package memtrack

import (
	"pagetrack/lib/logger"
)

// Reservation tracks a single speculative resident-size reservation
// obtained from Reserve. It must be released exactly once.
type Reservation struct {
	la   *Local
	size int64

	prevActive int64
	prevDirty  int64

	released bool
}

// Reserve opens a reservation scope of the given size around a page-manager
// operation expected to grow resident memory by up to size bytes.
//
// Reserve speculatively charges size to the process-wide resident counter
// before the operation runs, so concurrent reservations see each other's
// demand. If limit > 0 and the pre-reservation resident value plus size
// exceeds it, the scope is marked with DoNotIncreaseRSS: the page manager
// must then deny growth transitions, while dirty span reuse stays allowed.
// limit <= 0 disables the admission check.
//
// Until Release, span transitions made through la land on its local deltas.
// Release must run on every exit path, including panics:
//
//	r := la.Reserve(size, limit)
//	defer r.Release()
//
// Operations which cannot grow resident memory (frees, pure shrinks) pass
// size 0. For resize-style operations size is the net growth, not the peak.
// Opening a second scope on the same Local is a bug in the caller and panics.
func (la *Local) Reserve(size, limit int64) Reservation {
	if size < 0 {
		logger.Panicf("BUG: reservation size must be non-negative; got %d", size)
	}
	if la.UseLocalStats() {
		logger.Panicf("BUG: Reserve on a Local which is already inside a reservation scope")
	}
	reserved := residentBytes.Add(size) - size
	r := Reservation{
		la:   la,
		size: size,
	}
	if la == nil {
		return r
	}
	r.prevActive = la.activeBytesDelta
	r.prevDirty = la.dirtyBytesDelta
	la.useLocalStats = true
	la.doNotIncreaseRSS = limit > 0 && reserved+size > limit
	return r
}

// Release closes the reservation scope and reconciles the process-wide
// counters with the bytes the operation actually touched.
//
// The speculative size charged by Reserve is backed out and the net local
// deltas accumulated inside the scope are folded in, whether the operation
// succeeded, failed or panicked. Releasing the same Reservation twice is a
// bug in the caller and panics.
func (r *Reservation) Release() {
	if r.released {
		logger.Panicf("BUG: Release called twice on the same Reservation")
	}
	r.released = true

	var netActive, netDirty int64
	if la := r.la; la != nil {
		la.useLocalStats = false
		la.doNotIncreaseRSS = false
		netActive = la.activeBytesDelta - r.prevActive
		netDirty = la.dirtyBytesDelta - r.prevDirty
	}
	residentBytes.Add(netActive + netDirty - r.size)
	activeBytes.Add(netActive)
}

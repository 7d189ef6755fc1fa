package memtrack

import (
	"fmt"

	"pagetrack/lib/logger"
)

// SpanState is the accounting state of a page span.
type SpanState uint8

const (
	// StateRetained means the span's address range is reserved, but isn't backed
	// by physical memory. Newly mapped memory enters accounting in this state.
	StateRetained SpanState = iota

	// StateDirty means the span is backed by physical memory, but holds dead data.
	// Dirty spans may be reused for new allocations or purged back to Retained.
	StateDirty

	// StateActive means the span is backed by physical memory and holds live data.
	StateActive
)

// String implements fmt.Stringer
func (s SpanState) String() string {
	switch s {
	case StateRetained:
		return "Retained"
	case StateDirty:
		return "Dirty"
	case StateActive:
		return "Active"
	default:
		return fmt.Sprintf("SpanState(%d)", uint8(s))
	}
}

// Local accumulates span accounting for a single goroutine.
//
// While the goroutine runs inside a reservation scope (see Reserve), span
// state transitions update the deltas on Local instead of the process-wide
// counters. Outside a scope the Local is pass-through and all updates go to
// the process-wide counters directly.
//
// A Local must be owned by a single goroutine and requires no locking.
// A nil *Local is valid and means an uninstrumented caller: all methods
// are nil-receiver safe and route updates to the process-wide counters.
type Local struct {
	activeBytesDelta int64
	dirtyBytesDelta  int64

	useLocalStats    bool
	doNotIncreaseRSS bool
}

// ActiveBytesDelta returns the number of active bytes accumulated on la.
//
// The delta is never reset; callers must diff snapshots taken around the
// operation they account for.
func (la *Local) ActiveBytesDelta() int64 {
	if la == nil {
		return 0
	}
	return la.activeBytesDelta
}

// DirtyBytesDelta returns the number of dirty bytes accumulated on la.
//
// The delta is never reset; callers must diff snapshots taken around the
// operation they account for.
func (la *Local) DirtyBytesDelta() int64 {
	if la == nil {
		return 0
	}
	return la.dirtyBytesDelta
}

// UseLocalStats returns whether la currently routes span transitions to its
// own deltas instead of the process-wide counters.
func (la *Local) UseLocalStats() bool {
	return la != nil && la.useLocalStats
}

// DoNotIncreaseRSS returns whether the reservation la runs under has exceeded
// its memory limit.
func (la *Local) DoNotIncreaseRSS() bool {
	return la != nil && la.doNotIncreaseRSS
}

// GrowthAllowed returns whether the caller may make new pages resident.
//
// It must be consulted immediately before a growth transition
// (Retained->Active for freshly acquired pages) and never before dirty span
// reuse: reusing already resident pages is always allowed, even over the limit.
func (la *Local) GrowthAllowed() bool {
	return la == nil || !la.doNotIncreaseRSS
}

// CountTransition applies the counter effect of moving a span of size bytes
// between page states.
//
// The legal transitions and their net effect on (resident, active) are:
//
//	Retained -> Active   +size, +size    growth or reuse activation
//	Retained -> Dirty    +size, 0        split remainder re-entering the dirty set
//	Active   -> Dirty    0,     -size    free
//	Dirty    -> Retained -size, 0        purge
//	Dirty    -> Active   0,     +size    fused reuse
//
// In a reservation scope the effect lands on la's deltas in a single step.
// Outside a scope the transition is reported to the process-wide counters as
// separate leave and enter updates, so concurrent readers may observe a
// transient dip in resident_bytes during fused Dirty->Active reuse.
//
// Any other transition or a non-positive size is a bug in the caller and panics.
func (la *Local) CountTransition(from, to SpanState, size int64) {
	if size <= 0 {
		logger.Panicf("BUG: span size must be positive; got CountTransition(%s, %s, %d)", from, to, size)
	}
	switch {
	case from == StateRetained && to == StateActive:
		la.enterActive(size)
	case from == StateRetained && to == StateDirty:
		la.enterDirty(size)
	case from == StateActive && to == StateDirty:
		la.leaveActive(size)
		la.enterDirty(size)
	case from == StateDirty && to == StateRetained:
		la.leaveDirty(size)
	case from == StateDirty && to == StateActive:
		la.leaveDirty(size)
		la.enterActive(size)
	default:
		logger.Panicf("BUG: illegal span state transition %s -> %s", from, to)
	}
}

func (la *Local) enterActive(size int64) {
	if la.UseLocalStats() {
		la.activeBytesDelta += size
		return
	}
	residentBytes.Add(size)
	activeBytes.Add(size)
}

func (la *Local) leaveActive(size int64) {
	if la.UseLocalStats() {
		la.activeBytesDelta -= size
		return
	}
	residentBytes.Add(-size)
	activeBytes.Add(-size)
}

func (la *Local) enterDirty(size int64) {
	if la.UseLocalStats() {
		la.dirtyBytesDelta += size
		return
	}
	residentBytes.Add(size)
}

func (la *Local) leaveDirty(size int64) {
	if la.UseLocalStats() {
		la.dirtyBytesDelta -= size
		return
	}
	residentBytes.Add(-size)
}

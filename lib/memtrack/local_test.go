package memtrack

import (
	"testing"
)

func TestSpanStateString(t *testing.T) {
	f := func(s SpanState, want string) {
		t.Helper()
		if got := s.String(); got != want {
			t.Fatalf("unexpected string for state; got %q; want %q", got, want)
		}
	}
	f(StateRetained, "Retained")
	f(StateDirty, "Dirty")
	f(StateActive, "Active")
	f(SpanState(42), "SpanState(42)")
}

func TestLocalNil(t *testing.T) {
	var la *Local
	if n := la.ActiveBytesDelta(); n != 0 {
		t.Fatalf("unexpected ActiveBytesDelta for nil Local; got %d; want 0", n)
	}
	if n := la.DirtyBytesDelta(); n != 0 {
		t.Fatalf("unexpected DirtyBytesDelta for nil Local; got %d; want 0", n)
	}
	if la.UseLocalStats() {
		t.Fatalf("nil Local must not use local stats")
	}
	if la.DoNotIncreaseRSS() {
		t.Fatalf("nil Local must not set DoNotIncreaseRSS")
	}
	if !la.GrowthAllowed() {
		t.Fatalf("nil Local must allow growth")
	}
}

func TestCountTransitionGlobal(t *testing.T) {
	f := func(from, to SpanState, size, residentDelta, activeDelta int64) {
		t.Helper()
		resBefore := ResidentBytes()
		actBefore := ActiveBytes()

		var la *Local
		la.CountTransition(from, to, size)

		if n := ResidentBytes() - resBefore; n != residentDelta {
			t.Fatalf("unexpected resident_bytes delta for %s -> %s; got %d; want %d", from, to, n, residentDelta)
		}
		if n := ActiveBytes() - actBefore; n != activeDelta {
			t.Fatalf("unexpected active_bytes delta for %s -> %s; got %d; want %d", from, to, n, activeDelta)
		}
	}
	f(StateRetained, StateActive, 4096, 4096, 4096)
	f(StateRetained, StateDirty, 4096, 4096, 0)
	f(StateActive, StateDirty, 4096, 0, -4096)
	f(StateDirty, StateRetained, 4096, -4096, 0)
	f(StateDirty, StateActive, 4096, 0, 4096)

	// Retire the span left active by the rows above.
	f(StateActive, StateDirty, 4096, 0, -4096)
	f(StateDirty, StateRetained, 4096, -4096, 0)

	// sizes needn't be page-aligned at this layer
	f(StateRetained, StateActive, 123, 123, 123)
	f(StateActive, StateDirty, 123, 0, -123)
	f(StateDirty, StateRetained, 123, -123, 0)
}

func TestCountTransitionPassThroughLocal(t *testing.T) {
	// A Local outside a reservation scope routes to the process-wide counters.
	resBefore := ResidentBytes()
	actBefore := ActiveBytes()

	var la Local
	la.CountTransition(StateRetained, StateActive, 4096)

	if n := la.ActiveBytesDelta(); n != 0 {
		t.Fatalf("unexpected local active delta outside a scope; got %d; want 0", n)
	}
	if n := ResidentBytes() - resBefore; n != 4096 {
		t.Fatalf("unexpected resident_bytes delta; got %d; want %d", n, 4096)
	}
	if n := ActiveBytes() - actBefore; n != 4096 {
		t.Fatalf("unexpected active_bytes delta; got %d; want %d", n, 4096)
	}

	la.CountTransition(StateActive, StateDirty, 4096)
	la.CountTransition(StateDirty, StateRetained, 4096)
}

func TestCountTransitionLocal(t *testing.T) {
	f := func(from, to SpanState, size, activeDelta, dirtyDelta int64) {
		t.Helper()
		resBefore := ResidentBytes()
		actBefore := ActiveBytes()

		la := &Local{
			useLocalStats: true,
		}
		la.CountTransition(from, to, size)

		if n := la.ActiveBytesDelta(); n != activeDelta {
			t.Fatalf("unexpected local active delta for %s -> %s; got %d; want %d", from, to, n, activeDelta)
		}
		if n := la.DirtyBytesDelta(); n != dirtyDelta {
			t.Fatalf("unexpected local dirty delta for %s -> %s; got %d; want %d", from, to, n, dirtyDelta)
		}
		if n := ResidentBytes() - resBefore; n != 0 {
			t.Fatalf("resident_bytes must not change in thread-local mode for %s -> %s; got delta %d", from, to, n)
		}
		if n := ActiveBytes() - actBefore; n != 0 {
			t.Fatalf("active_bytes must not change in thread-local mode for %s -> %s; got delta %d", from, to, n)
		}
	}
	f(StateRetained, StateActive, 4096, 4096, 0)
	f(StateRetained, StateDirty, 4096, 0, 4096)
	f(StateActive, StateDirty, 4096, -4096, 4096)
	f(StateDirty, StateRetained, 4096, 0, -4096)
	f(StateDirty, StateActive, 4096, 4096, -4096)
}

func TestCountTransitionPanics(t *testing.T) {
	f := func(from, to SpanState, size int64) {
		t.Helper()
		defer func() {
			if r := recover(); r == nil {
				t.Fatalf("expecting panic on CountTransition(%s, %s, %d)", from, to, size)
			}
		}()
		var la *Local
		la.CountTransition(from, to, size)
	}

	// illegal transitions
	f(StateActive, StateRetained, 4096)
	f(StateRetained, StateRetained, 4096)
	f(StateDirty, StateDirty, 4096)
	f(StateActive, StateActive, 4096)
	f(SpanState(42), StateActive, 4096)
	f(StateRetained, SpanState(42), 4096)

	// non-positive sizes
	f(StateRetained, StateActive, 0)
	f(StateRetained, StateActive, -4096)
}

func TestCountTransitionPanicsKeepCounters(t *testing.T) {
	resBefore := ResidentBytes()
	actBefore := ActiveBytes()

	func() {
		defer func() {
			_ = recover()
		}()
		var la *Local
		la.CountTransition(StateActive, StateRetained, 4096)
	}()

	if n := ResidentBytes() - resBefore; n != 0 {
		t.Fatalf("resident_bytes must not change on rejected transition; got delta %d", n)
	}
	if n := ActiveBytes() - actBefore; n != 0 {
		t.Fatalf("active_bytes must not change on rejected transition; got delta %d", n)
	}
}

package memtrack

import (
	"sync/atomic"
	"testing"
)

func BenchmarkReserveRelease(b *testing.B) {
	const spanSize = 4096
	b.ReportAllocs()
	b.SetBytes(spanSize)
	b.RunParallel(func(pb *testing.PB) {
		var la Local
		for pb.Next() {
			r := la.Reserve(spanSize, 1<<40)
			la.CountTransition(StateRetained, StateActive, spanSize)
			r.Release()

			rf := la.Reserve(0, 1<<40)
			la.CountTransition(StateActive, StateDirty, spanSize)
			la.CountTransition(StateDirty, StateRetained, spanSize)
			rf.Release()
		}
	})
}

func BenchmarkCountTransitionGlobal(b *testing.B) {
	const spanSize = 4096
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		var la *Local
		for pb.Next() {
			la.CountTransition(StateRetained, StateActive, spanSize)
			la.CountTransition(StateActive, StateDirty, spanSize)
			la.CountTransition(StateDirty, StateRetained, spanSize)
		}
	})
}

func BenchmarkCountTransitionLocal(b *testing.B) {
	const spanSize = 4096
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		la := &Local{
			useLocalStats: true,
		}
		for pb.Next() {
			la.CountTransition(StateRetained, StateActive, spanSize)
			la.CountTransition(StateActive, StateDirty, spanSize)
			la.CountTransition(StateDirty, StateRetained, spanSize)
		}
		atomic.AddInt64(&Sink, la.ActiveBytesDelta())
	})
}

func BenchmarkResidentBytes(b *testing.B) {
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		var n int64
		for pb.Next() {
			n += ResidentBytes()
		}
		atomic.AddInt64(&Sink, n)
	})
}

var Sink int64

package spanpool

import (
	"fmt"
	"testing"

	"pagetrack/lib/memtrack"
)

func BenchmarkAllocFree(b *testing.B) {
	for _, size := range []int{PageSize, 16 * PageSize} {
		b.Run(fmt.Sprintf("size-%d", size), func(b *testing.B) {
			benchmarkAllocFree(b, size)
		})
	}
}

func benchmarkAllocFree(b *testing.B, size int) {
	p := newPool(0)
	defer p.MustStop()

	b.ReportAllocs()
	b.SetBytes(int64(size))
	b.RunParallel(func(pb *testing.PB) {
		var la memtrack.Local
		for pb.Next() {
			r := la.Reserve(int64(size), 0)
			s, err := p.Alloc(&la, size)
			r.Release()
			if err != nil {
				panic(fmt.Errorf("cannot allocate %d bytes: %w", size, err))
			}
			s.B[0] = 1

			rf := la.Reserve(0, 0)
			p.Free(&la, s)
			rf.Release()
		}
	})
	b.StopTimer()
	p.PurgeIdle(0)
}

// Package spanpool provides a page-granular span allocator with
// dirty span reuse and decay-based purging.
//
// All page state changes are accounted via lib/memtrack, so process-wide
// resident and active byte counters track the pool contents exactly.
package spanpool

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"pagetrack/lib/fasttime"
	"pagetrack/lib/logger"
	"pagetrack/lib/memtrack"
)

// PageSize is the span allocation granularity.
//
// Span sizes are always a multiple of PageSize.
const PageSize = 4096

// ErrMemoryLimitExceeded is returned from Pool.Alloc when the allocation
// cannot be satisfied from dirty spans and the caller disallows
// resident memory growth.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Span is a memory span handed out by Pool.Alloc.
type Span struct {
	// B is the span memory. Its length is the requested size
	// rounded up to a multiple of PageSize.
	B []byte

	size int64

	// freedAt is non-zero once the span has been freed.
	// It is read and updated under the owning pool's mu.
	freedAt uint64
}

// SizeBytes returns the span size in bytes.
func (s *Span) SizeBytes() int64 {
	return s.size
}

// Pool hands out page-granular memory spans.
//
// Freed spans stay dirty and are reused by subsequent allocations
// until the purger releases them.
//
// Call New() for creating new Pool.
type Pool struct {
	// mu protects all the fields below.
	mu sync.Mutex

	// dirty holds freed spans in free order, the oldest first.
	dirty []*Span

	activeSpans  uint64
	activeBytes  uint64
	dirtySpans   uint64
	dirtyBytes   uint64
	allocCalls   uint64
	freeCalls    uint64
	reuseHits    uint64
	splits       uint64
	growthAllocs uint64
	denials      uint64
	purgedSpans  uint64
	purgedBytes  uint64

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// New creates a new pool with the given name.
//
// The name is used for exported metrics. Each pool in the program
// must have a distinct name.
//
// MustStop must be called on the returned pool when it is no longer needed.
func New(name string) *Pool {
	p := newPool(dirtyDecayDuration.Duration())
	p.registerMetrics(name)
	return p
}

func newPool(decay time.Duration) *Pool {
	var p Pool
	p.stopCh = make(chan struct{})
	if decay > 0 {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.purger(decay)
		}()
	}
	return &p
}

// MustStop stops the pool's background purger.
//
// It must be called exactly once. Dirty spans aren't released by MustStop;
// call PurgeIdle(0) for dropping them.
func (p *Pool) MustStop() {
	close(p.stopCh)
	p.wg.Wait()
}

// Alloc returns a span of nbytes bytes rounded up to whole pages.
//
// Page state changes are accounted via la, which may be nil.
// If no dirty span can satisfy the allocation and la disallows resident
// memory growth, ErrMemoryLimitExceeded is returned.
func (p *Pool) Alloc(la *memtrack.Local, nbytes int) (*Span, error) {
	if nbytes <= 0 {
		logger.Panicf("BUG: span size must be positive; got %d", nbytes)
	}
	size := roundToPages(int64(nbytes))

	p.mu.Lock()
	defer p.mu.Unlock()

	p.allocCalls++
	if s := p.reuseLocked(la, size); s != nil {
		p.reuseHits++
		return s, nil
	}
	if !la.GrowthAllowed() {
		p.denials++
		return nil, ErrMemoryLimitExceeded
	}
	la.CountTransition(memtrack.StateRetained, memtrack.StateActive, size)
	p.growthAllocs++
	p.activeSpans++
	p.activeBytes += uint64(size)
	return &Span{
		B:    make([]byte, size),
		size: size,
	}, nil
}

// reuseLocked takes the least recently freed dirty span fitting size.
//
// Oversized spans are split; the remainder re-enters the dirty set
// at the position and with the idle stamp of the original span.
func (p *Pool) reuseLocked(la *memtrack.Local, size int64) *Span {
	for i, s := range p.dirty {
		if s.size < size {
			continue
		}
		la.CountTransition(memtrack.StateDirty, memtrack.StateRetained, s.size)
		p.dirtySpans--
		p.dirtyBytes -= uint64(s.size)
		if rest := s.size - size; rest > 0 {
			la.CountTransition(memtrack.StateRetained, memtrack.StateDirty, rest)
			p.dirty[i] = &Span{
				B:       s.B[size:],
				size:    rest,
				freedAt: s.freedAt,
			}
			p.dirtySpans++
			p.dirtyBytes += uint64(rest)
			p.splits++
		} else {
			p.dirty = append(p.dirty[:i], p.dirty[i+1:]...)
		}
		la.CountTransition(memtrack.StateRetained, memtrack.StateActive, size)
		p.activeSpans++
		p.activeBytes += uint64(size)
		return &Span{
			B:    s.B[:size:size],
			size: size,
		}
	}
	return nil
}

// Free returns s to the pool. The span memory stays resident in the dirty
// set until it is reused or purged.
//
// Page state changes are accounted via la, which may be nil.
// Free panics when s has been freed already.
func (p *Pool) Free(la *memtrack.Local, s *Span) {
	if s == nil {
		logger.Panicf("BUG: Free called on nil span")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if s.freedAt != 0 {
		logger.Panicf("BUG: double free of a span of %d bytes", s.size)
	}
	la.CountTransition(memtrack.StateActive, memtrack.StateDirty, s.size)
	s.freedAt = fasttime.UnixTimestamp()
	p.dirty = append(p.dirty, s)
	p.activeSpans--
	p.activeBytes -= uint64(s.size)
	p.dirtySpans++
	p.dirtyBytes += uint64(s.size)
	p.freeCalls++
}

func roundToPages(n int64) int64 {
	return (n + PageSize - 1) / PageSize * PageSize
}

// Stats represents pool state and counters.
type Stats struct {
	ActiveSpans uint64
	ActiveBytes uint64
	DirtySpans  uint64
	DirtyBytes  uint64

	AllocCalls   uint64
	FreeCalls    uint64
	ReuseHits    uint64
	Splits       uint64
	GrowthAllocs uint64
	Denials      uint64
	PurgedSpans  uint64
	PurgedBytes  uint64
}

// UpdateStats adds pool state and counters to s.
func (p *Pool) UpdateStats(s *Stats) {
	p.mu.Lock()
	s.ActiveSpans += p.activeSpans
	s.ActiveBytes += p.activeBytes
	s.DirtySpans += p.dirtySpans
	s.DirtyBytes += p.dirtyBytes

	s.AllocCalls += p.allocCalls
	s.FreeCalls += p.freeCalls
	s.ReuseHits += p.reuseHits
	s.Splits += p.splits
	s.GrowthAllocs += p.growthAllocs
	s.Denials += p.denials
	s.PurgedSpans += p.purgedSpans
	s.PurgedBytes += p.purgedBytes
	p.mu.Unlock()
}

func (p *Pool) registerMetrics(name string) {
	g := func(metricName string, f func(s *Stats) uint64) {
		metrics.NewGauge(fmt.Sprintf(`pagetrack_spanpool_%s{name=%q}`, metricName, name), func() float64 {
			var s Stats
			p.UpdateStats(&s)
			return float64(f(&s))
		})
	}
	g("active_spans", func(s *Stats) uint64 { return s.ActiveSpans })
	g("active_bytes", func(s *Stats) uint64 { return s.ActiveBytes })
	g("dirty_spans", func(s *Stats) uint64 { return s.DirtySpans })
	g("dirty_bytes", func(s *Stats) uint64 { return s.DirtyBytes })
	g("reuse_hits_total", func(s *Stats) uint64 { return s.ReuseHits })
	g("growth_allocs_total", func(s *Stats) uint64 { return s.GrowthAllocs })
	g("denials_total", func(s *Stats) uint64 { return s.Denials })
	g("purged_bytes_total", func(s *Stats) uint64 { return s.PurgedBytes })
}

package main

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/cespare/xxhash/v2"
	"github.com/valyala/fastrand"
	"github.com/valyala/histogram"

	"pagetrack/lib/logger"
	"pagetrack/lib/memtrack"
	"pagetrack/lib/spanpool"
)

var (
	allocsTotal  = metrics.NewCounter(`pagetrack_stress_allocs_total`)
	freesTotal   = metrics.NewCounter(`pagetrack_stress_frees_total`)
	denialsTotal = metrics.NewCounter(`pagetrack_stress_denials_total`)

	denialsLogger = logger.WithThrottler("memoryLimitExceeded", 5*time.Second)
)

// workload executes Config phases against a span pool.
type workload struct {
	pool  *spanpool.Pool
	limit int64

	// latMu protects lat, which is shared by the workers of the current phase.
	latMu sync.Mutex
	lat   *histogram.Fast
}

func newWorkload(pool *spanpool.Pool, limit int64) *workload {
	return &workload{
		pool:  pool,
		limit: limit,
	}
}

// run executes the phases from cfg one after another.
//
// It returns early when stopCh is closed.
func (wl *workload) run(cfg *Config, stopCh <-chan struct{}) {
	for _, pc := range cfg.Phases {
		if stopped(stopCh) {
			logger.Infof("skipping the remaining workload phases")
			return
		}
		wl.runPhase(pc, stopCh)
	}
}

func (wl *workload) runPhase(pc *PhaseConfig, stopCh <-chan struct{}) {
	logger.Infof("starting phase %q: workers=%d, duration=%s, alloc_bytes=[%d..%d], hold_duration=%s, free_ratio=%g",
		pc.Name, pc.Workers, pc.Duration.Duration(), pc.MinAllocBytes, pc.MaxAllocBytes, pc.HoldDuration.Duration(), *pc.FreeRatio)

	wl.lat = histogram.GetFast()
	startTime := time.Now()
	deadline := startTime.Add(pc.Duration.Duration())

	var wg sync.WaitGroup
	for i := 0; i < pc.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wl.worker(pc, deadline, stopCh)
		}()
	}
	wg.Wait()

	p50 := wl.lat.Quantile(0.5)
	p99 := wl.lat.Quantile(0.99)
	pmax := wl.lat.Quantile(1)
	histogram.PutFast(wl.lat)
	wl.lat = nil

	var st spanpool.Stats
	wl.pool.UpdateStats(&st)
	logger.Infof("finished phase %q in %.3f seconds; alloc latency seconds: p50=%.6f, p99=%.6f, max=%.6f; "+
		"pool: reuse_hits=%d, growth_allocs=%d, splits=%d, denials=%d, dirty_bytes=%d",
		pc.Name, time.Since(startTime).Seconds(), p50, p99, pmax,
		st.ReuseHits, st.GrowthAllocs, st.Splits, st.Denials, st.DirtyBytes)
}

// heldSpan is an allocated span awaiting its free deadline.
type heldSpan struct {
	s      *spanpool.Span
	digest uint64
	freeAt time.Time
}

// worker allocates, verifies and frees spans in a loop until deadline.
//
// Every allocated span is filled with random data and its digest is remembered.
// The digest is re-checked before the span is freed in order to catch
// memory corruption due to broken span ownership in the pool.
func (wl *workload) worker(pc *PhaseConfig, deadline time.Time, stopCh <-chan struct{}) {
	var la memtrack.Local
	var rng fastrand.RNG

	var held []heldSpan
	sizeRange := uint32(pc.MaxAllocBytes - pc.MinAllocBytes + 1)
	holdDuration := pc.HoldDuration.Duration()
	freeRatio := uint32(*pc.FreeRatio * (1 << 30))

	for time.Now().Before(deadline) {
		if stopped(stopCh) {
			break
		}
		held = wl.freeExpired(&la, held, time.Now())

		size := pc.MinAllocBytes + int(rng.Uint32n(sizeRange))
		startTime := time.Now()
		r := la.Reserve(int64(size), wl.limit)
		s, err := wl.pool.Alloc(&la, size)
		r.Release()
		if err != nil {
			denialsTotal.Inc()
			denialsLogger.Warnf("cannot allocate %d bytes: %s", size, err)
			time.Sleep(10 * time.Millisecond)
			continue
		}
		wl.updateAllocLatency(time.Since(startTime))
		allocsTotal.Inc()

		fillSpan(&rng, s.B)
		hs := heldSpan{
			s:      s,
			digest: xxhash.Sum64(s.B),
		}
		if rng.Uint32n(1<<30) < freeRatio {
			wl.verifyAndFree(&la, hs)
			continue
		}
		hs.freeAt = time.Now().Add(holdDuration)
		held = append(held, hs)
	}

	// Drain the spans still held at the phase end.
	for _, hs := range held {
		wl.verifyAndFree(&la, hs)
	}
}

// freeExpired frees the held spans which reached their free deadline
// and returns the spans still held.
func (wl *workload) freeExpired(la *memtrack.Local, held []heldSpan, now time.Time) []heldSpan {
	dst := held[:0]
	for _, hs := range held {
		if hs.freeAt.After(now) {
			dst = append(dst, hs)
			continue
		}
		wl.verifyAndFree(la, hs)
	}
	return dst
}

func (wl *workload) verifyAndFree(la *memtrack.Local, hs heldSpan) {
	if digest := xxhash.Sum64(hs.s.B); digest != hs.digest {
		logger.Panicf("BUG: span of %d bytes was corrupted while held: got digest %016x; want %016x", hs.s.SizeBytes(), digest, hs.digest)
	}
	r := la.Reserve(0, wl.limit)
	wl.pool.Free(la, hs.s)
	r.Release()
	freesTotal.Inc()
}

func (wl *workload) updateAllocLatency(d time.Duration) {
	wl.latMu.Lock()
	wl.lat.Update(d.Seconds())
	wl.latMu.Unlock()
}

// fillSpan fills b with a random byte sequence.
//
// Span sizes are multiples of the page size, so b is filled in full.
func fillSpan(rng *fastrand.RNG, b []byte) {
	for len(b) >= 4 {
		binary.LittleEndian.PutUint32(b, rng.Uint32())
		b = b[4:]
	}
}

func stopped(stopCh <-chan struct{}) bool {
	select {
	case <-stopCh:
		return true
	default:
		return false
	}
}

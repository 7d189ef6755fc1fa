package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"pagetrack/lib/buildinfo"
	"pagetrack/lib/cgroup"
	"pagetrack/lib/envflag"
	"pagetrack/lib/flagutil"
	"pagetrack/lib/httpserver"
	"pagetrack/lib/logger"
	"pagetrack/lib/memlimit"
	"pagetrack/lib/memtrack"
	"pagetrack/lib/procutil"
	"pagetrack/lib/spanpool"
	"pagetrack/lib/timeutil"
)

var (
	httpListenAddr = flag.String("httpListenAddr", ":8429", "TCP address for exporting metrics at /metrics page")
	workloadFile   = flag.String("workloadFile", "", "Optional path to YAML file with a multi-phase workload config. "+
		"A single phase built from -workers, -duration, -minAllocBytes, -maxAllocBytes and -holdDuration is executed if the flag is unset")
	workers       = flag.Int("workers", 0, "The number of concurrent allocation workers. By default the number of available CPU cores is used")
	duration      = flag.Duration("duration", 10*time.Second, "How long to run the workload")
	minAllocBytes = flagutil.NewBytes("minAllocBytes", spanpool.PageSize, "The minimum span size requested by workers")
	maxAllocBytes = flagutil.NewBytes("maxAllocBytes", 1024*1024, "The maximum span size requested by workers")
	holdDuration  = flag.Duration("holdDuration", time.Second, "How long a worker holds an allocated span before freeing it")
	memoryLimit   = flagutil.NewBytes("memory.limit", 0, "The resident memory limit for span allocations. Span allocations requiring new memory "+
		"are denied above the limit, while dirty span reuse is always allowed. By default the limit is set to the memory allowed by -memory.allowedPercent and -memory.allowedBytes")
)

func main() {
	// Write flags and help message to stdout, since it is easier to grep or pipe.
	flag.CommandLine.SetOutput(os.Stdout)
	flag.Usage = usage
	envflag.Parse()
	buildinfo.Init()
	logger.Init()
	cgroup.SetGOGC(30)

	limit := memoryLimit.N
	if limit <= 0 {
		limit = int64(memlimit.Allowed())
	}
	cfg := mustLoadWorkloadConfig()
	logger.Infof("starting memstress with %d workload phases and resident memory limit of %d bytes", len(cfg.Phases), limit)

	go httpserver.Serve(*httpListenAddr, requestHandler)

	pool := spanpool.New("memstress")
	wl := newWorkload(pool, limit)

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	go func() {
		wl.run(cfg, stopCh)
		close(doneCh)
	}()
	go func() {
		sig := procutil.WaitForSigterm()
		logger.Infof("received signal %s; stopping the workload", sig)
		close(stopCh)
	}()
	<-doneCh

	mustVerifyQuiescence(pool)

	startTime := time.Now()
	logger.Infof("gracefully shutting down http server for metrics at %q", *httpListenAddr)
	if err := httpserver.Stop(*httpListenAddr); err != nil {
		logger.Fatalf("cannot stop http server for metrics: %s", err)
	}
	logger.Infof("successfully shut down http server for metrics in %.3f seconds", time.Since(startTime).Seconds())
}

func mustLoadWorkloadConfig() *Config {
	if *workloadFile != "" {
		cfg, err := loadConfig(*workloadFile)
		if err != nil {
			logger.Fatalf("cannot load -workloadFile=%q: %s", *workloadFile, err)
		}
		return cfg
	}
	pc := &PhaseConfig{
		Name:          "default",
		Workers:       *workers,
		Duration:      timeutil.NewDuration(*duration),
		MinAllocBytes: int(minAllocBytes.N),
		MaxAllocBytes: int(maxAllocBytes.N),
		HoldDuration:  timeutil.NewDuration(*holdDuration),
	}
	if err := pc.validate(); err != nil {
		logger.Fatalf("invalid command-line flags: %s", err)
	}
	return &Config{
		Phases: []*PhaseConfig{pc},
	}
}

// mustVerifyQuiescence checks that process-wide memory accounting agrees
// with pool stats after all the workers have freed their spans,
// and that a full purge returns the accounting to zero.
func mustVerifyQuiescence(pool *spanpool.Pool) {
	pool.MustStop()

	var st spanpool.Stats
	pool.UpdateStats(&st)
	residentBytes := memtrack.ResidentBytes()
	activeBytes := memtrack.ActiveBytes()
	if uint64(residentBytes) != st.ActiveBytes+st.DirtyBytes || uint64(activeBytes) != st.ActiveBytes {
		logger.Panicf("BUG: memory accounting mismatch: resident_bytes=%d, active_bytes=%d, pool active_bytes=%d, pool dirty_bytes=%d",
			residentBytes, activeBytes, st.ActiveBytes, st.DirtyBytes)
	}

	purgedBytes := pool.PurgeIdle(0)
	residentBytes = memtrack.ResidentBytes()
	activeBytes = memtrack.ActiveBytes()
	if residentBytes != 0 || activeBytes != 0 {
		logger.Panicf("BUG: non-zero memory accounting after the final purge: resident_bytes=%d, active_bytes=%d", residentBytes, activeBytes)
	}
	logger.Infof("memory accounting is exact: purged %d dirty bytes; resident_bytes=0, active_bytes=0", purgedBytes)
}

func requestHandler(w http.ResponseWriter, r *http.Request) bool {
	return false
}

func usage() {
	const s = `
memstress runs a configurable span allocation workload against the pagetrack accounting layer.

It allocates, verifies and frees page-granular memory spans under a resident memory limit
and exports accounting metrics at /metrics.
`
	flagutil.Usage(s)
}

// Package memtrack maintains process-wide accounting of page-span memory
// and the admission control state for span growth.
//
// Two signed counters track the allocator-visible memory of the process:
// resident_bytes counts pages backed by physical memory (live or purgeable),
// active_bytes counts pages holding live data. Updates are routed either
// straight to the process-wide counters or into a per-goroutine Local,
// depending on the reservation state of the caller. See Reserve for the
// speculative reservation protocol tying the two together.
package memtrack

import (
	"github.com/VictoriaMetrics/metrics"

	"pagetrack/lib/atomicutil"
)

var (
	residentBytes atomicutil.Int64
	activeBytes   atomicutil.Int64
)

func init() {
	metrics.NewGauge(`pagetrack_resident_bytes`, func() float64 {
		return float64(ResidentBytes())
	})
	metrics.NewGauge(`pagetrack_active_bytes`, func() float64 {
		return float64(ActiveBytes())
	})
}

// ResidentBytes returns the process-wide number of resident page-span bytes.
//
// The value is transiently inconsistent while reservations are in flight.
// It may be negative or exceed the real usage by the sum of in-flight
// reservation sizes; it is exact when no instrumented operation is running.
func ResidentBytes() int64 {
	return residentBytes.Load()
}

// ActiveBytes returns the process-wide number of active page-span bytes.
//
// See ResidentBytes for the accuracy guarantees.
func ActiveBytes() int64 {
	return activeBytes.Load()
}

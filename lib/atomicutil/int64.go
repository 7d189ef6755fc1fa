package atomicutil

import (
	"sync/atomic"
)

// Int64 is like atomic.Int64, but is protected from false sharing.
//
// It is intended for frequently updated process-wide counters, which may be
// concurrently updated from many CPU cores.
type Int64 struct {
	// The padding prevents false sharing with the previous memory location on widespread platforms with cache line size >= 128.
	_ [128]byte

	atomic.Int64

	// The padding prevents false sharing with the next memory location on widespread platforms with cache line size >= 128.
	_ [128]byte
}

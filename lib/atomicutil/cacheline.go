package atomicutil

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize is the size of a CPU cache line at the target architecture.
//
// The padding inside Int64 and Uint64 must cover at least CacheLineSize bytes,
// so adjacent values never land on a shared cache line.
const CacheLineSize = unsafe.Sizeof(cpu.CacheLinePad{})

package memlimit

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"pagetrack/lib/logger"
)

type memStatusEx struct {
	dwLength                uint32
	dwMemoryLoad            uint32
	ullTotalPhys            uint64
	ullAvailPhys            uint64
	ullTotalPageFile        uint64
	ullAvailPageFile        uint64
	ullTotalVirtual         uint64
	ullAvailVirtual         uint64
	ullAvailExtendedVirtual uint64
}

var (
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	globalMemoryStatusEx = kernel32.NewProc("GlobalMemoryStatusEx")
)

// See https://learn.microsoft.com/en-us/windows/win32/api/sysinfoapi/nf-sysinfoapi-globalmemorystatusex
func sysTotalMemory() int {
	msx := &memStatusEx{
		dwLength: uint32(unsafe.Sizeof(memStatusEx{})),
	}
	r, _, err := globalMemoryStatusEx.Call(uintptr(unsafe.Pointer(msx)))
	if r == 0 {
		logger.Panicf("FATAL: error in GlobalMemoryStatusEx: %s", err)
	}
	return int(msx.ullTotalPhys)
}

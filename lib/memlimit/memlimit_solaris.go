package memlimit

import (
	"golang.org/x/sys/unix"

	"pagetrack/lib/logger"
)

// See https://man7.org/linux/man-pages/man3/sysconf.3.html
const _SC_PHYS_PAGES = 0x1f4

func sysTotalMemory() int {
	memPageSize := unix.Getpagesize()
	memPagesCnt, err := unix.Sysconf(_SC_PHYS_PAGES)
	if err != nil {
		logger.Panicf("FATAL: error in unix.Sysconf: %s", err)
	}
	return memPageSize * int(memPagesCnt)
}

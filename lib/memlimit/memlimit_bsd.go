//go:build freebsd || openbsd || dragonfly || netbsd

package memlimit

import (
	"pagetrack/lib/logger"
)

func sysTotalMemory() int {
	s, err := sysctlUint64("hw.physmem")
	if err != nil {
		logger.Panicf("FATAL: cannot determine system memory: %s", err)
	}
	return int(s)
}

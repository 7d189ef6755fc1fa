//go:build darwin || freebsd || openbsd || dragonfly || netbsd

package memlimit

import (
	"golang.org/x/sys/unix"
)

func sysctlUint64(name string) (uint64, error) {
	s, err := unix.SysctlUint64(name)
	if err != nil {
		return 0, err
	}
	return s, nil
}

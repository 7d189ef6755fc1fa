package cgroup

import (
	"os"
	"runtime/debug"
	"strconv"
)

// GetMemoryLimit returns the cgroup memory limit for the current process.
//
// Zero is returned if the limit cannot be determined.
func GetMemoryLimit() int64 {
	// cgroup v1 is tried first, since it is still common in container runtimes.
	n, err := getStatGeneric("memory.limit_in_bytes", "/sys/fs/cgroup/memory", "/proc/self/cgroup", "memory")
	if err == nil {
		return n
	}
	// See https://www.kernel.org/doc/html/latest/admin-guide/cgroup-v2.html#memory-interface-files
	n, err = getStatGeneric("memory.max", "/sys/fs/cgroup", "/proc/self/cgroup", "")
	if err != nil {
		return 0
	}
	return n
}

// GetHierarchicalMemoryLimit returns the hierarchical memory limit for the current process.
//
// The hierarchical limit applies inside nested containers such as lxc.
// See https://www.kernel.org/doc/Documentation/cgroup-v1/memory.txt
func GetHierarchicalMemoryLimit() int64 {
	n, err := getHierarchicalMemoryLimit("/sys/fs/cgroup/memory", "/proc/self/cgroup")
	if err != nil {
		return 0
	}
	return n
}

func getHierarchicalMemoryLimit(sysfsPrefix, cgroupPath string) (int64, error) {
	data, err := getFileContents("memory.stat", sysfsPrefix, cgroupPath, "memory")
	if err != nil {
		return 0, err
	}
	memStat, err := grepFirstMatch(data, "hierarchical_memory_limit", 1, " ")
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(memStat, 10, 64)
}

var gogc int

// GetGOGC returns the GOGC value in effect for the current process.
func GetGOGC() int {
	return gogc
}

// SetGOGC sets the garbage collection target percentage to gogcNew.
//
// The GOGC environment variable takes precedence over gogcNew if it is set.
func SetGOGC(gogcNew int) {
	gogc = gogcNew
	if v := os.Getenv("GOGC"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			n = 100
		}
		gogc = int(n)
		return
	}
	debug.SetGCPercent(gogc)
}

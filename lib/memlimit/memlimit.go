// Package memlimit determines the amounts of system memory the app is allowed to use.
package memlimit

import (
	"flag"
	"fmt"
	"sync"

	"pagetrack/lib/flagutil"
	"pagetrack/lib/logger"
)

var (
	allowedPercent = flag.Float64("memory.allowedPercent", 60, "Allowed percent of system memory the app may occupy. "+
		"See also -memory.allowedBytes. Too low a value may increase allocation denials under load, "+
		"while too high a value may leave too little memory to the OS page cache")
	allowedBytes = flagutil.NewBytes("memory.allowedBytes", 0, "Allowed size of system memory the app may occupy. "+
		"This option overrides -memory.allowedPercent if set to a non-zero value")
)

var (
	allowedMemory   int
	remainingMemory int
)

var once sync.Once

func initOnce() {
	if !flag.Parsed() {
		// Do not use logger.Panicf here, since logger may be uninitialized yet.
		panic(fmt.Errorf("BUG: memlimit.Allowed must be called only after flag.Parse call"))
	}
	mem := sysTotalMemory()
	if allowedBytes.N <= 0 {
		if *allowedPercent < 1 || *allowedPercent > 200 {
			logger.Panicf("FATAL: -memory.allowedPercent must be in the range [1...200]; got %g", *allowedPercent)
		}
		percent := *allowedPercent / 100
		allowedMemory = int(float64(mem) * percent)
		remainingMemory = mem - allowedMemory
		logger.Infof("limiting the app memory to %d bytes, leaving %d bytes to the OS according to -memory.allowedPercent=%g", allowedMemory, remainingMemory, *allowedPercent)
	} else {
		allowedMemory = int(allowedBytes.N)
		remainingMemory = mem - allowedMemory
		logger.Infof("limiting the app memory to %d bytes, leaving %d bytes to the OS according to -memory.allowedBytes=%s", allowedMemory, remainingMemory, allowedBytes.String())
	}
}

// Allowed returns the amount of system memory allowed to use by the app.
//
// The function must be called only after flag.Parse is called.
func Allowed() int {
	once.Do(initOnce)
	return allowedMemory
}

// Remaining returns the amount of memory remaining to the OS.
//
// This function must be called only after flag.Parse is called.
func Remaining() int {
	once.Do(initOnce)
	return remainingMemory
}

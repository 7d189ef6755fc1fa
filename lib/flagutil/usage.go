package flagutil

import (
	"flag"
	"fmt"
)

// Usage prints s and the description of all the available flags.
//
// It is intended for being used inside a custom flag.Usage func.
func Usage(s string) {
	f := flag.CommandLine.Output()
	fmt.Fprintf(f, "%s\n", s)
	flag.PrintDefaults()
}

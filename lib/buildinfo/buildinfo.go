// Package buildinfo provides build information for the app.
package buildinfo

import (
	"flag"
	"fmt"
	"os"
)

var version = flag.Bool("version", false, "Show version and exit")

// Version must be set via -ldflags '-X pagetrack/lib/buildinfo.Version=...'
var Version string

// Init must be called after flag.Parse call.
func Init() {
	if Version == "" {
		Version = "unknown"
	}
	if *version {
		fmt.Printf("%s\n", Version)
		os.Exit(0)
	}
}

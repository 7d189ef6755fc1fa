// Package envflag allows reading flag values from environment variables.
package envflag

import (
	"flag"
	"log"
	"os"
	"strings"

	"pagetrack/lib/flagutil"
)

var (
	enable = flag.Bool("envflag.enable", false, "Whether to enable reading flags from environment variables additionally to command line. "+
		"Command line flag values have priority over values from environment vars. "+
		"Flags are read only from command line if this flag isn't set")
	prefix = flag.String("envflag.prefix", "", "Prefix for environment variables if -envflag.enable is set")
)

// Parse parses environment vars and command-line flags.
//
// Flags set via command-line override flags set via environment vars.
//
// This function must be called instead of flag.Parse() before using any flags in the program.
func Parse() {
	ParseFlagSet(flag.CommandLine, os.Args[1:])
}

// ParseFlagSet parses the given args into the given fs.
func ParseFlagSet(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		// Do not use lib/logger here, since it is uninitialized yet.
		log.Fatalf("cannot parse flags %q: %s", args, err)
	}
	if *enable {
		// Remember explicitly set command-line flags.
		flagsSet := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) {
			flagsSet[f.Name] = true
		})

		// Obtain the remaining flag values from environment vars.
		fs.VisitAll(func(f *flag.Flag) {
			if flagsSet[f.Name] {
				// The flag is explicitly set via command-line.
				return
			}
			// Get flag value from environment var.
			fname := getEnvFlagName(f.Name)
			if v, ok := os.LookupEnv(fname); ok {
				if err := fs.Set(f.Name, v); err != nil {
					// Do not use lib/logger here, since it is uninitialized yet.
					log.Fatalf("cannot set flag %s to %q, which is read from environment variable %q: %s", f.Name, v, fname, err)
				}
			}
		})
	}
	flagutil.ApplySecretFlags()
}

func getEnvFlagName(s string) string {
	// Environment variable names cannot contain dots, so replace them with underscores.
	s = strings.ReplaceAll(s, ".", "_")
	return *prefix + s
}

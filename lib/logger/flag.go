package logger

import (
	"flag"
	"strings"

	"pagetrack/lib/buildinfo"
	"pagetrack/lib/flagutil"
)

func logAllFlags() {
	Infof("build version: %s", buildinfo.Version)
	Infof("command line flags")
	flag.VisitAll(func(f *flag.Flag) {
		lname := strings.ToLower(f.Name)
		value := f.Value.String()
		if flagutil.IsSecretFlag(lname) {
			// Do not expose passwords and keys in logs.
			value = "secret"
		}
		Infof("flag %q = %q", f.Name, value)
	})
}

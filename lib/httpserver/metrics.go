package httpserver

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"pagetrack/lib/buildinfo"
	"pagetrack/lib/cgroup"
	"pagetrack/lib/flagutil"
	"pagetrack/lib/memlimit"
)

func writePrometheusMetrics(w io.Writer) {
	metrics.WritePrometheus(w, true)

	fmt.Fprintf(w, "pagetrack_app_version{version=%q} 1\n", buildinfo.Version)
	fmt.Fprintf(w, "pagetrack_allowed_memory_bytes %d\n", memlimit.Allowed())
	fmt.Fprintf(w, "pagetrack_gogc_percent %d\n", cgroup.GetGOGC())

	// Export start time and uptime in seconds
	fmt.Fprintf(w, "pagetrack_app_start_timestamp %d\n", startTime.Unix())
	fmt.Fprintf(w, "pagetrack_app_uptime_seconds %d\n", int(time.Since(startTime).Seconds()))

	// Export flags as metrics.
	flag.VisitAll(func(f *flag.Flag) {
		lname := strings.ToLower(f.Name)
		value := f.Value.String()
		if flagutil.IsSecretFlag(lname) {
			// Do not expose passwords and keys to prometheus.
			value = "secret"
		}
		fmt.Fprintf(w, "flag{name=%q, value=%q} 1\n", f.Name, value)
	})
}

var startTime = time.Now()

package flagutil

import (
	"flag"
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metricsql"
)

// NewPromDuration returns new `duration` flag with the given name, defaultValue and description.
//
// The flag accepts Prometheus-style duration values.
func NewPromDuration(name string, defaultValue string, description string) *PromDuration {
	description += "\nThe following optional suffixes are supported: s (second), m (minute), h (hour), d (day), w (week), y (year). " +
		"If suffix isn't set, then the duration is counted in seconds"
	pd := &PromDuration{}
	if err := pd.Set(defaultValue); err != nil {
		panic(fmt.Sprintf("BUG: cannot parse the default value %q for -%s: %s", defaultValue, name, err))
	}
	flag.Var(pd, name, description)
	return pd
}

// PromDuration is a flag holding a Prometheus-style duration.
type PromDuration struct {
	d time.Duration

	valueString string
}

// Duration returns the parsed flag value.
func (pd *PromDuration) Duration() time.Duration {
	return pd.d
}

// String implements flag.Value interface
func (pd *PromDuration) String() string {
	if pd == nil {
		return ""
	}
	return pd.valueString
}

// Set implements flag.Value interface
func (pd *PromDuration) Set(value string) error {
	msecs, err := metricsql.DurationValue(value, 0)
	if err != nil {
		return err
	}
	pd.d = time.Duration(msecs) * time.Millisecond
	pd.valueString = value
	return nil
}

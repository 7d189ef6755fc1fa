package timeutil

import (
	"time"

	"github.com/VictoriaMetrics/metricsql"
)

// ParseDuration parses duration string in Prometheus format.
//
// The following optional suffixes are supported: s (second), m (minute), h (hour),
// d (day), w (week), y (year). If the suffix isn't set, then the duration is counted in seconds.
func ParseDuration(s string) (time.Duration, error) {
	ms, err := metricsql.DurationValue(s, 0)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// Duration is duration, which must be used in yaml configs with Prometheus-compatible duration values.
type Duration struct {
	D time.Duration
}

// NewDuration returns Duration for given d.
func NewDuration(d time.Duration) *Duration {
	return &Duration{
		D: d,
	}
}

// MarshalYAML implements yaml.Marshaler interface.
func (d Duration) MarshalYAML() (any, error) {
	return d.D.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler interface.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dv, err := ParseDuration(s)
	if err != nil {
		return err
	}
	d.D = dv
	return nil
}

// Duration returns duration for d.
func (d *Duration) Duration() time.Duration {
	if d == nil {
		return 0
	}
	return d.D
}

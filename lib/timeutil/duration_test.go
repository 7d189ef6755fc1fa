package timeutil

import (
	"testing"
	"time"

	"gopkg.in/yaml.v2"
)

func TestParseDurationSuccess(t *testing.T) {
	f := func(s string, dExpected time.Duration) {
		t.Helper()
		d, err := ParseDuration(s)
		if err != nil {
			t.Fatalf("unexpected error in ParseDuration(%q): %s", s, err)
		}
		if d != dExpected {
			t.Fatalf("unexpected duration; got %s; want %s", d, dExpected)
		}
	}
	f("0", 0)
	f("10s", 10*time.Second)
	f("50ms", 50*time.Millisecond)
	f("1h30m", 90*time.Minute)
	f("1.5d", 36*time.Hour)
	f("2w", 14*24*time.Hour)
	f("-5m", -5*time.Minute)
}

func TestParseDurationFailure(t *testing.T) {
	f := func(s string) {
		t.Helper()
		if _, err := ParseDuration(s); err == nil {
			t.Fatalf("expecting non-nil error in ParseDuration(%q)", s)
		}
	}
	f("")
	f("foobar")
	f("1sm")
	f("10s,")
}

func TestDurationYAML(t *testing.T) {
	type config struct {
		Interval *Duration `yaml:"interval,omitempty"`
	}

	var cfg config
	data := []byte("interval: 1h5m\n")
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("cannot unmarshal duration: %s", err)
	}
	if d := cfg.Interval.Duration(); d != time.Hour+5*time.Minute {
		t.Fatalf("unexpected duration; got %s; want %s", d, time.Hour+5*time.Minute)
	}

	result, err := yaml.Marshal(&cfg)
	if err != nil {
		t.Fatalf("cannot marshal duration: %s", err)
	}
	if string(result) != "interval: 1h5m0s\n" {
		t.Fatalf("unexpected marshaled duration; got %q; want %q", result, "interval: 1h5m0s\n")
	}
}

func TestDurationNil(t *testing.T) {
	var d *Duration
	if v := d.Duration(); v != 0 {
		t.Fatalf("unexpected duration for nil; got %s; want 0", v)
	}
}

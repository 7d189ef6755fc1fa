package main

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pagetrack/lib/cgroup"
	"pagetrack/lib/spanpool"
	"pagetrack/lib/timeutil"
)

func TestParseConfigSuccess(t *testing.T) {
	f := func(data string, cfgExpected *Config) {
		t.Helper()

		cfg, err := parseConfig([]byte(data))
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if diff := cmp.Diff(cfgExpected, cfg); diff != "" {
			t.Fatalf("unexpected config (-want, +got):\n%s", diff)
		}
	}

	freeRatio := func(v float64) *float64 {
		return &v
	}

	// Minimal phase. Unset fields must obtain default values.
	f(`
phases:
- name: warmup
  duration: 5s
`, &Config{
		Phases: []*PhaseConfig{
			{
				Name:          "warmup",
				Workers:       cgroup.AvailableCPUs(),
				Duration:      timeutil.NewDuration(5 * time.Second),
				MinAllocBytes: spanpool.PageSize,
				MaxAllocBytes: spanpool.PageSize,
				FreeRatio:     freeRatio(0.5),
			},
		},
	})

	// Fully specified phase.
	f(`
phases:
- name: churn
  workers: 3
  duration: 1m30s
  min_alloc_bytes: 4096
  max_alloc_bytes: 65536
  hold_duration: 100ms
  free_ratio: 0.9
`, &Config{
		Phases: []*PhaseConfig{
			{
				Name:          "churn",
				Workers:       3,
				Duration:      timeutil.NewDuration(90 * time.Second),
				MinAllocBytes: 4096,
				MaxAllocBytes: 65536,
				HoldDuration:  timeutil.NewDuration(100 * time.Millisecond),
				FreeRatio:     freeRatio(0.9),
			},
		},
	})

	// Multiple phases with an explicit zero free_ratio,
	// which must not be replaced with the default value.
	f(`
phases:
- name: grow
  workers: 1
  duration: 10s
  min_alloc_bytes: 8192
  free_ratio: 0
- name: steady
  workers: 2
  duration: 20s
  hold_duration: 1s
`, &Config{
		Phases: []*PhaseConfig{
			{
				Name:          "grow",
				Workers:       1,
				Duration:      timeutil.NewDuration(10 * time.Second),
				MinAllocBytes: 8192,
				MaxAllocBytes: 8192,
				FreeRatio:     freeRatio(0),
			},
			{
				Name:          "steady",
				Workers:       2,
				Duration:      timeutil.NewDuration(20 * time.Second),
				MinAllocBytes: spanpool.PageSize,
				MaxAllocBytes: spanpool.PageSize,
				HoldDuration:  timeutil.NewDuration(time.Second),
				FreeRatio:     freeRatio(0.5),
			},
		},
	})
}

func TestParseConfigFailure(t *testing.T) {
	f := func(data string) {
		t.Helper()

		cfg, err := parseConfig([]byte(data))
		if err == nil {
			t.Fatalf("expecting non-nil error; got config:\n%v", cfg)
		}
	}

	// Empty config
	f(``)

	// Empty phases list
	f(`phases: []`)

	// Unknown field
	f(`
phases:
- name: foo
  duration: 5s
  holdduration: 1s
`)

	// Missing name
	f(`
phases:
- duration: 5s
`)

	// Missing duration
	f(`
phases:
- name: foo
`)

	// Unparseable duration
	f(`
phases:
- name: foo
  duration: nonsense
`)

	// Negative workers
	f(`
phases:
- name: foo
  duration: 5s
  workers: -1
`)

	// Negative min_alloc_bytes
	f(`
phases:
- name: foo
  duration: 5s
  min_alloc_bytes: -4096
`)

	// max_alloc_bytes smaller than min_alloc_bytes
	f(`
phases:
- name: foo
  duration: 5s
  min_alloc_bytes: 65536
  max_alloc_bytes: 4096
`)

	// free_ratio out of range
	f(`
phases:
- name: foo
  duration: 5s
  free_ratio: 1.5
`)
	f(`
phases:
- name: foo
  duration: 5s
  free_ratio: -0.1
`)
}

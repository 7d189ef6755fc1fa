package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"pagetrack/lib/cgroup"
	"pagetrack/lib/spanpool"
	"pagetrack/lib/timeutil"
)

// Config represents a workload config for memstress.
//
// Phases are executed sequentially in the order they are listed.
type Config struct {
	Phases []*PhaseConfig `yaml:"phases"`
}

// PhaseConfig is a single phase of the workload.
type PhaseConfig struct {
	// Name is the phase name used in logs.
	Name string `yaml:"name"`

	// Workers is the number of concurrent allocation workers.
	//
	// By default the number of available CPU cores is used.
	Workers int `yaml:"workers,omitempty"`

	// Duration is how long the phase runs.
	Duration *timeutil.Duration `yaml:"duration"`

	// MinAllocBytes and MaxAllocBytes bound the span sizes requested by workers.
	// Sizes are picked uniformly at random from this range.
	MinAllocBytes int `yaml:"min_alloc_bytes,omitempty"`
	MaxAllocBytes int `yaml:"max_alloc_bytes,omitempty"`

	// HoldDuration is how long a worker holds an allocated span before freeing it.
	HoldDuration *timeutil.Duration `yaml:"hold_duration,omitempty"`

	// FreeRatio is the share of spans freed immediately after the allocation
	// instead of being held for HoldDuration. It must be in the range [0..1].
	// Low values build up a standing working set, high values churn the dirty list.
	FreeRatio *float64 `yaml:"free_ratio,omitempty"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read workload config: %w", err)
	}
	cfg, err := parseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("cannot parse workload config from %q: %w", path, err)
	}
	return cfg, nil
}

func parseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal data: %w", err)
	}
	if len(cfg.Phases) == 0 {
		return nil, fmt.Errorf("`phases` section cannot be empty")
	}
	for i, pc := range cfg.Phases {
		if err := pc.validate(); err != nil {
			return nil, fmt.Errorf("invalid phase #%d: %w", i, err)
		}
	}
	return &cfg, nil
}

// validate checks pc and fills in default values for unset fields.
func (pc *PhaseConfig) validate() error {
	if pc.Name == "" {
		return fmt.Errorf("missing `name`")
	}
	if pc.Workers < 0 {
		return fmt.Errorf("`workers` cannot be negative; got %d", pc.Workers)
	}
	if pc.Workers == 0 {
		pc.Workers = cgroup.AvailableCPUs()
	}
	if pc.Duration.Duration() <= 0 {
		return fmt.Errorf("`duration` must be positive; got %s", pc.Duration.Duration())
	}
	if pc.MinAllocBytes < 0 {
		return fmt.Errorf("`min_alloc_bytes` cannot be negative; got %d", pc.MinAllocBytes)
	}
	if pc.MinAllocBytes == 0 {
		pc.MinAllocBytes = spanpool.PageSize
	}
	if pc.MaxAllocBytes < 0 {
		return fmt.Errorf("`max_alloc_bytes` cannot be negative; got %d", pc.MaxAllocBytes)
	}
	if pc.MaxAllocBytes == 0 {
		pc.MaxAllocBytes = pc.MinAllocBytes
	}
	if pc.MaxAllocBytes < pc.MinAllocBytes {
		return fmt.Errorf("`max_alloc_bytes` (%d) cannot be smaller than `min_alloc_bytes` (%d)", pc.MaxAllocBytes, pc.MinAllocBytes)
	}
	if pc.FreeRatio == nil {
		freeRatio := 0.5
		pc.FreeRatio = &freeRatio
	}
	if *pc.FreeRatio < 0 || *pc.FreeRatio > 1 {
		return fmt.Errorf("`free_ratio` must be in the range [0..1]; got %g", *pc.FreeRatio)
	}
	return nil
}

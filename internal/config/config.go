// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Pulse PulseConfig `yaml:"pulse"`
}

type PulseConfig struct {
	Port            int             `yaml:"port"`
	IntervalSeconds int             `yaml:"interval_seconds"`
	HazardLevels    []HazardLevel   `yaml:"hazard_levels"`
	Events          []EventConfig   `yaml:"events"`
	Diagnostics     DiagnosticsFile `yaml:"diagnostics"`
	Watch           WatchConfig     `yaml:"watch"`
}

// ---- HAZARD ----

// HazardLevel is one row of the severity priority table.
// Config order is priority order: most severe first.
type HazardLevel struct {
	Severity string  `yaml:"severity"`
	Score    float64 `yaml:"score"`
}

// ---- EVENTS ----

type EventConfig struct {
	Kind    string  `yaml:"kind"`
	Decay   float64 `yaml:"decay"`
	Divisor float64 `yaml:"divisor"`
}

// ---- COLLABORATORS ----

// DiagnosticsFile points at a severity drop-file re-read on every tick.
// Empty path means no diagnostics source (hazard stays at the default).
type DiagnosticsFile struct {
	Path string `yaml:"path"`
}

// WatchConfig lists filesystem paths the event watcher observes.
// Empty means no filesystem event source is started.
type WatchConfig struct {
	Paths []string `yaml:"paths"`
}

// Load reads and decodes a YAML config file.
// Validation and normalization are separate stages.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return &cfg, nil
}

// internal/config/validate.go
package config

import (
	"fmt"
	"math"
)

// finite rejects NaN and infinities, which yaml happily parses
// (".nan", ".inf") and which slip through plain range comparisons.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	p := cfg.Pulse

	// ------------------------------------------------------------
	// SERVICE SURFACE
	// ------------------------------------------------------------

	if p.Port < 0 || p.Port > 65535 {
		return fmt.Errorf("port %d out of range", p.Port)
	}
	if p.IntervalSeconds < 0 {
		return fmt.Errorf("interval_seconds must be >= 0, got %d", p.IntervalSeconds)
	}

	// ------------------------------------------------------------
	// EVENT KINDS
	// ------------------------------------------------------------

	if len(p.Events) == 0 {
		return fmt.Errorf("at least one event kind is required")
	}

	seen := make(map[string]struct{})

	for _, e := range p.Events {
		if e.Kind == "" {
			return fmt.Errorf("event kind must not be empty")
		}
		if _, dup := seen[e.Kind]; dup {
			return fmt.Errorf("event kind %q declared twice", e.Kind)
		}
		seen[e.Kind] = struct{}{}

		if !finite(e.Decay) || e.Decay < 0 || e.Decay > 1 {
			return fmt.Errorf("event %q: decay %v outside [0,1]", e.Kind, e.Decay)
		}
		if !finite(e.Divisor) || e.Divisor <= 0 {
			return fmt.Errorf("event %q: divisor must be a finite number > 0, got %v", e.Kind, e.Divisor)
		}
	}

	// ------------------------------------------------------------
	// HAZARD TABLE
	// ------------------------------------------------------------

	labels := make(map[string]struct{})

	for i, h := range p.HazardLevels {
		if h.Severity == "" {
			return fmt.Errorf("hazard level %d: severity must not be empty", i)
		}
		if _, dup := labels[h.Severity]; dup {
			return fmt.Errorf("hazard severity %q declared twice", h.Severity)
		}
		labels[h.Severity] = struct{}{}

		if !finite(h.Score) {
			return fmt.Errorf("hazard severity %q: score must be a finite number, got %v", h.Severity, h.Score)
		}
	}

	return nil
}

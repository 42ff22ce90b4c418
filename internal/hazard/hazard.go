// internal/hazard/hazard.go
package hazard

import (
	"errors"
	"math"
)

// DefaultScore is returned when no configured severity is present.
const DefaultScore float64 = 0

// Level is one row of the severity priority table.
type Level struct {
	Severity string
	Score    float64
}

// Classifier maps a set of diagnostic severities to a single hazard
// score. The table is walked in priority order (most severe first)
// and the first level present anywhere in the input wins. This is an
// override policy, not an average: one error-level diagnostic
// outweighs any number of warnings.
//
// The classifier is a pure function over its table; it accepts any
// string label set and is not coupled to a particular diagnostics
// engine.
type Classifier struct {
	levels []Level
}

// New creates a classifier from an ordered severity table.
// An empty table is valid: every input classifies to DefaultScore.
func New(levels []Level) (*Classifier, error) {
	seen := make(map[string]struct{}, len(levels))
	for _, lv := range levels {
		if lv.Severity == "" {
			return nil, errors.New("hazard: severity must not be empty")
		}
		if _, dup := seen[lv.Severity]; dup {
			return nil, errors.New("hazard: duplicate severity " + lv.Severity)
		}
		seen[lv.Severity] = struct{}{}

		if math.IsNaN(lv.Score) || math.IsInf(lv.Score, 0) {
			return nil, errors.New("hazard: score for " + lv.Severity + " must be finite")
		}
	}

	out := make([]Level, len(levels))
	copy(out, levels)
	return &Classifier{levels: out}, nil
}

// Classify returns the score of the highest-priority level whose
// severity appears in severities, or DefaultScore if none match.
func (c *Classifier) Classify(severities []string) float64 {
	if len(severities) == 0 {
		return DefaultScore
	}

	present := make(map[string]struct{}, len(severities))
	for _, s := range severities {
		present[s] = struct{}{}
	}

	for _, lv := range c.levels {
		if _, ok := present[lv.Severity]; ok {
			return lv.Score
		}
	}
	return DefaultScore
}

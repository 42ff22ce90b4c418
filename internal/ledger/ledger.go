// internal/ledger/ledger.go
package ledger

import (
	"errors"
	"math"
	"sync"
)

// KindConfig describes one tracked event kind.
type KindConfig struct {
	Kind    string
	Decay   float64 // per-interval multiplicative attenuation, [0,1]
	Divisor float64 // normalization divisor for the score term, > 0
}

type entry struct {
	counter float64
	decay   float64
	divisor float64
}

// Ledger maps event kinds to decaying activity counters.
// The kind set is fixed at construction; counters live for the
// process lifetime and are reset only via Reset.
//
// Record may be called concurrently with Score and Decay: hook
// callbacks fire from editor activity while the broadcast tick
// reads and decays on its own goroutine.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates a ledger with all counters at zero.
func New(kinds []KindConfig) (*Ledger, error) {
	if len(kinds) == 0 {
		return nil, errors.New("ledger: at least one event kind required")
	}

	entries := make(map[string]*entry, len(kinds))
	for _, k := range kinds {
		if k.Kind == "" {
			return nil, errors.New("ledger: kind must not be empty")
		}
		// NaN compares false against every bound, so the range checks
		// alone would let it through and poison every later score.
		if math.IsNaN(k.Decay) || math.IsInf(k.Decay, 0) || k.Decay < 0 || k.Decay > 1 {
			return nil, errors.New("ledger: decay must be in [0,1]")
		}
		if math.IsNaN(k.Divisor) || math.IsInf(k.Divisor, 0) || k.Divisor <= 0 {
			return nil, errors.New("ledger: divisor must be a finite number > 0")
		}
		if _, dup := entries[k.Kind]; dup {
			return nil, errors.New("ledger: duplicate kind " + k.Kind)
		}
		entries[k.Kind] = &entry{decay: k.Decay, divisor: k.Divisor}
	}

	return &Ledger{entries: entries}, nil
}

// Record increments the counter for kind by 1.
// Unknown kinds are ignored: hooks are registered only for configured
// kinds, so a miss here is a stray caller, not an error path.
func (l *Ledger) Record(kind string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[kind]; ok {
		e.counter++
	}
}

// Score computes the normalized activity score in [0,1].
// Each kind contributes 1 - 1/(1 + counter/divisor); the terms are
// summed across kinds and the SUM is clamped at 1. Each term
// saturates toward 1 as its counter grows, so the clamp on the sum
// is what keeps the result bounded.
func (l *Ledger) Score() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var sum float64
	for _, e := range l.entries {
		sum += 1 - 1/(1+e.counter/e.divisor)
	}

	if sum > 1 {
		return 1
	}
	return sum
}

// Decay attenuates every counter by its decay factor, flooring at zero.
// The scheduler calls this strictly after the tick snapshot so an
// emitted measurement always reflects pre-decay state.
func (l *Ledger) Decay() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		e.counter *= e.decay
		if e.counter < 0 {
			e.counter = 0
		}
	}
}

// Reset zeroes every counter. Used on service start so a restarted
// service begins from a clean ledger.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		e.counter = 0
	}
}

// Counter returns the current counter for kind (0 for unknown kinds).
func (l *Ledger) Counter(kind string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[kind]; ok {
		return e.counter
	}
	return 0
}

// internal/scheduler/builder.go
package scheduler

import (
	"time"

	cfg "github.com/tamzrod/session-pulse/internal/config"
	"github.com/tamzrod/session-pulse/internal/hazard"
	"github.com/tamzrod/session-pulse/internal/ledger"
	"github.com/tamzrod/session-pulse/internal/source"
	"github.com/tamzrod/session-pulse/internal/stream"
)

// Build constructs a scheduler and its owned pieces (ledger,
// classifier, registry, server) from validated, normalized config.
// The external collaborators (diagnostics source, hook registrar) are
// passed in; construction fails fast on any configuration problem.
func Build(c *cfg.Config, diags source.DiagnosticsSource, registrar source.Registrar) (*Scheduler, error) {
	p := c.Pulse

	kindCfgs := make([]ledger.KindConfig, 0, len(p.Events))
	kinds := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		kindCfgs = append(kindCfgs, ledger.KindConfig{
			Kind:    e.Kind,
			Decay:   e.Decay,
			Divisor: e.Divisor,
		})
		kinds = append(kinds, e.Kind)
	}

	led, err := ledger.New(kindCfgs)
	if err != nil {
		return nil, err
	}

	levels := make([]hazard.Level, 0, len(p.HazardLevels))
	for _, h := range p.HazardLevels {
		levels = append(levels, hazard.Level{Severity: h.Severity, Score: h.Score})
	}

	classifier, err := hazard.New(levels)
	if err != nil {
		return nil, err
	}

	registry := stream.NewRegistry()
	server := stream.NewServer(registry)

	return New(
		Config{
			Port:            p.Port,
			Interval:        time.Duration(p.IntervalSeconds) * time.Second,
			IntervalSeconds: p.IntervalSeconds,
			Kinds:           kinds,
		},
		led,
		classifier,
		diags,
		registrar,
		registry,
		server,
	)
}

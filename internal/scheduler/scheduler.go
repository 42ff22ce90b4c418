// internal/scheduler/scheduler.go
package scheduler

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tamzrod/session-pulse/internal/hazard"
	"github.com/tamzrod/session-pulse/internal/ledger"
	"github.com/tamzrod/session-pulse/internal/measure"
	"github.com/tamzrod/session-pulse/internal/source"
	"github.com/tamzrod/session-pulse/internal/stream"
)

// Config is the minimal runtime config the scheduler needs.
type Config struct {
	Port int

	// Interval drives the ticker; IntervalSeconds is the same value
	// reported inside every Measurement. The builder derives both
	// from one config field so they cannot drift.
	Interval        time.Duration
	IntervalSeconds int

	// Kinds are the event kinds whose hooks get installed on Start.
	Kinds []string
}

// Scheduler drives the measure-and-broadcast cycle.
// State machine: Stopped -> Running -> Stopped, nothing in between.
// The tick runs inline in the single runner goroutine, so two ticks
// can never overlap for the same ledger.
type Scheduler struct {
	cfg        Config
	ledger     *ledger.Ledger
	classifier *hazard.Classifier
	diags      source.DiagnosticsSource
	registrar  source.Registrar
	registry   *stream.Registry
	server     *stream.Server

	// lifecycleMu serializes Start/Stop/Restart end to end, so a
	// concurrent Start cannot bind a listener while a Stop is still
	// tearing the previous one down. mu guards the state fields only.
	lifecycleMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	cancels []func()
}

// New wires the scheduler to its collaborators. All hook
// registration happens at Start, not here; no global tables.
func New(
	cfg Config,
	led *ledger.Ledger,
	classifier *hazard.Classifier,
	diags source.DiagnosticsSource,
	registrar source.Registrar,
	registry *stream.Registry,
	server *stream.Server,
) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("scheduler: interval must be > 0")
	}
	if len(cfg.Kinds) == 0 {
		return nil, errors.New("scheduler: at least one event kind required")
	}
	if led == nil || classifier == nil || diags == nil || registrar == nil || registry == nil || server == nil {
		return nil, errors.New("scheduler: all collaborators required")
	}

	return &Scheduler{
		cfg:        cfg,
		ledger:     led,
		classifier: classifier,
		diags:      diags,
		registrar:  registrar,
		registry:   registry,
		server:     server,
	}, nil
}

// Start installs event hooks, opens the stream server, and begins the
// periodic broadcast. No-op when already running. A hook registration
// failure or bind failure is a startup error: everything installed so
// far is unwound and the scheduler stays Stopped.
func (s *Scheduler) Start() error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.Running() {
		return nil
	}

	// A restarted service begins from a clean ledger.
	s.ledger.Reset()

	var cancels []func()
	unwind := func() {
		for _, c := range cancels {
			c()
		}
	}

	for _, kind := range s.cfg.Kinds {
		kind := kind
		cancel, err := s.registrar.Register(kind, func() {
			s.ledger.Record(kind)
		})
		if err != nil {
			unwind()
			return fmt.Errorf("scheduler: hook for kind %q: %w", kind, err)
		}
		cancels = append(cancels, cancel)
	}

	if err := s.server.Start(s.cfg.Port); err != nil {
		unwind()
		return err
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	s.mu.Lock()
	s.cancels = cancels
	s.stopCh = stopCh
	s.doneCh = doneCh
	s.running = true
	s.mu.Unlock()

	go s.run(stopCh, doneCh)

	log.Printf("scheduler: running (addr=%s interval=%s)", s.server.Addr(), s.cfg.Interval)
	return nil
}

// Stop tears down the timer, event hooks, the stream server, and
// every subscriber connection. Idempotent: calling it while Stopped
// is a no-op. When it returns, no new tick can begin; an in-flight
// tick has already finished, because the runner goroutine exits only
// between ticks. Holding lifecycleMu through the whole teardown keeps
// a concurrent Start from binding a listener this Stop would close.
func (s *Scheduler) Stop() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopCh, doneCh := s.stopCh, s.doneCh
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()

	close(stopCh)
	<-doneCh

	for _, c := range cancels {
		c()
	}

	if err := s.server.Close(); err != nil {
		log.Printf("scheduler: server close: %v", err)
	}
	s.registry.Clear()

	log.Printf("scheduler: stopped")
}

// Restart is Stop followed by Start.
func (s *Scheduler) Restart() error {
	s.Stop()
	return s.Start()
}

// Running reports whether the scheduler is in the Running state.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Addr returns the stream server's bound address while running.
func (s *Scheduler) Addr() string {
	return s.server.Addr()
}

func (s *Scheduler) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick is one measure-and-broadcast cycle. Order is fixed: fetch
// diagnostics, classify, score, build the measurement, push, and only
// then decay, so every emitted frame reflects pre-decay counters.
func (s *Scheduler) tick() {
	severities, err := s.diags.Severities()
	if err != nil {
		// Hazard degrades to the default; the tick goes on.
		log.Printf("scheduler: diagnostics unavailable: %v", err)
		severities = nil
	}

	m := measure.Measurement{
		Activity: s.ledger.Score(),
		Hazard:   s.classifier.Classify(severities),
		Time:     s.cfg.IntervalSeconds,
	}

	frame, err := measure.EncodeFrame(m)
	if err != nil {
		log.Printf("scheduler: encode: %v", err)
	} else {
		s.registry.Broadcast(frame)
	}

	s.ledger.Decay()
}

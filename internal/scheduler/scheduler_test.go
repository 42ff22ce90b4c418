// internal/scheduler/scheduler_test.go
package scheduler

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tamzrod/session-pulse/internal/hazard"
	"github.com/tamzrod/session-pulse/internal/ledger"
	"github.com/tamzrod/session-pulse/internal/measure"
	"github.com/tamzrod/session-pulse/internal/stream"
)

// ---- fakes ----

type fakeDiags struct {
	severities []string
	err        error
}

func (f *fakeDiags) Severities() ([]string, error) {
	return f.severities, f.err
}

type fakeRegistrar struct {
	mu        sync.Mutex
	hooks     map[string]func()
	cancelled []string
	failKind  string
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{hooks: make(map[string]func())}
}

func (f *fakeRegistrar) Register(kind string, fn func()) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if kind == f.failKind {
		return nil, errors.New("unknown event kind " + kind)
	}
	f.hooks[kind] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cancelled = append(f.cancelled, kind)
		delete(f.hooks, kind)
	}, nil
}

func (f *fakeRegistrar) fire(kind string, times int) {
	f.mu.Lock()
	fn := f.hooks[kind]
	f.mu.Unlock()

	if fn == nil {
		return
	}
	for i := 0; i < times; i++ {
		fn()
	}
}

func (f *fakeRegistrar) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cancelled)
}

func (f *fakeRegistrar) hook(kind string) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hooks[kind]
}

type captureSubscriber struct {
	frames [][]byte
}

func (c *captureSubscriber) ID() string { return "capture" }

func (c *captureSubscriber) Send(frame []byte) error {
	c.frames = append(c.frames, frame)
	return nil
}

func (c *captureSubscriber) Close() error { return nil }

// ---- helpers ----

func newScheduler(t *testing.T, diags *fakeDiags, reg *fakeRegistrar) (*Scheduler, *stream.Registry) {
	t.Helper()

	led, err := ledger.New([]ledger.KindConfig{
		{Kind: "save", Decay: 0.9, Divisor: 2},
	})
	if err != nil {
		t.Fatalf("ledger.New err=%v", err)
	}

	classifier, err := hazard.New([]hazard.Level{
		{Severity: "error", Score: 1},
		{Severity: "warning", Score: 0.5},
	})
	if err != nil {
		t.Fatalf("hazard.New err=%v", err)
	}

	registry := stream.NewRegistry()
	server := stream.NewServer(registry)

	s, err := New(
		Config{
			Port:            0,
			Interval:        20 * time.Millisecond,
			IntervalSeconds: 5,
			Kinds:           []string{"save"},
		},
		led, classifier, diags, reg, registry, server,
	)
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	return s, registry
}

func decodeFrame(t *testing.T, frame []byte) measure.Measurement {
	t.Helper()
	body := bytes.TrimSuffix(bytes.TrimPrefix(frame, []byte("data: ")), []byte("\n\n"))
	var m measure.Measurement
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("decode frame %q: %v", frame, err)
	}
	return m
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// ---- tests ----

func TestTick_MeasurementSequence(t *testing.T) {
	diags := &fakeDiags{}
	s, registry := newScheduler(t, diags, newFakeRegistrar())

	sub := &captureSubscriber{}
	registry.Add(sub)

	// 3 save events, divisor 2: activity = 1 - 1/(1+3/2) = 0.6.
	s.ledger.Record("save")
	s.ledger.Record("save")
	s.ledger.Record("save")

	s.tick()

	if len(sub.frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(sub.frames))
	}
	m := decodeFrame(t, sub.frames[0])
	if !closeTo(m.Activity, 0.6) {
		t.Fatalf("activity: got %v want 0.6", m.Activity)
	}
	if m.Time != 5 {
		t.Fatalf("time: got %d want 5", m.Time)
	}

	// Decay ran strictly after the push: the counter is now 3*0.9=2.7
	// and the next tick reports the decayed value.
	s.tick()

	want := 1 - 1/(1+2.7/2)
	m = decodeFrame(t, sub.frames[1])
	if !closeTo(m.Activity, want) {
		t.Fatalf("post-decay activity: got %v want %v", m.Activity, want)
	}
}

func TestTick_HazardFromDiagnostics(t *testing.T) {
	diags := &fakeDiags{severities: []string{"warning", "error"}}
	s, registry := newScheduler(t, diags, newFakeRegistrar())

	sub := &captureSubscriber{}
	registry.Add(sub)

	s.tick()

	m := decodeFrame(t, sub.frames[0])
	if m.Hazard != 1 {
		t.Fatalf("hazard: got %v want 1", m.Hazard)
	}
}

func TestTick_DiagnosticsFailureDegradesToDefault(t *testing.T) {
	diags := &fakeDiags{err: errors.New("lsp gone")}
	s, registry := newScheduler(t, diags, newFakeRegistrar())

	sub := &captureSubscriber{}
	registry.Add(sub)

	s.tick()

	// The tick still broadcasts; hazard falls back to the default.
	if len(sub.frames) != 1 {
		t.Fatalf("diagnostics failure must not abort the tick")
	}
	m := decodeFrame(t, sub.frames[0])
	if m.Hazard != hazard.DefaultScore {
		t.Fatalf("hazard: got %v want default %v", m.Hazard, hazard.DefaultScore)
	}
}

func TestStartStop_Lifecycle(t *testing.T) {
	reg := newFakeRegistrar()
	s, registry := newScheduler(t, &fakeDiags{}, reg)

	if err := s.Start(); err != nil {
		t.Fatalf("Start err=%v", err)
	}
	if !s.Running() {
		t.Fatalf("expected Running after Start")
	}
	if reg.hook("save") == nil {
		t.Fatalf("hook not installed on Start")
	}

	// Start while running is a no-op.
	if err := s.Start(); err != nil {
		t.Fatalf("second Start err=%v", err)
	}

	reg.fire("save", 4)
	if got := s.ledger.Counter("save"); got != 4 {
		t.Fatalf("hook path: counter got %v want 4", got)
	}

	s.Stop()
	if s.Running() {
		t.Fatalf("expected Stopped after Stop")
	}
	if reg.cancelCount() != 1 {
		t.Fatalf("hooks not removed on Stop: %v", reg.cancelled)
	}
	if registry.Len() != 0 {
		t.Fatalf("registry not cleared on Stop")
	}

	// Stop twice produces the same observable state.
	s.Stop()
	if s.Running() || registry.Len() != 0 {
		t.Fatalf("double Stop changed state")
	}

	// Restart resets the ledger.
	if err := s.Start(); err != nil {
		t.Fatalf("restart err=%v", err)
	}
	defer s.Stop()
	if got := s.ledger.Counter("save"); got != 0 {
		t.Fatalf("restart must reset counters, got %v", got)
	}
}

func TestStartStop_ConcurrentLifecycleCalls(t *testing.T) {
	s, _ := newScheduler(t, &fakeDiags{}, newFakeRegistrar())

	// Hammer the lifecycle from several goroutines. Start/Stop are
	// serialized end to end, so no Stop may ever close a listener a
	// newer Start just bound.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_ = s.Restart()
				s.Stop()
			}
		}()
	}
	wg.Wait()

	s.Stop()

	// After the churn the scheduler still works: a fresh Start leaves
	// a live, bound server.
	if err := s.Start(); err != nil {
		t.Fatalf("Start after concurrent churn err=%v", err)
	}
	if !s.Running() {
		t.Fatalf("expected Running after Start")
	}
	if s.Addr() == "" {
		t.Fatalf("server not bound after concurrent lifecycle calls")
	}
	s.Stop()
	if s.Running() {
		t.Fatalf("expected Stopped after final Stop")
	}
}

func TestStart_UnknownHookKindFailsFast(t *testing.T) {
	reg := newFakeRegistrar()
	reg.failKind = "save"
	s, _ := newScheduler(t, &fakeDiags{}, reg)

	if err := s.Start(); err == nil {
		t.Fatalf("expected startup error for unknown hook kind")
	}
	if s.Running() {
		t.Fatalf("scheduler must stay Stopped after failed Start")
	}
}

func TestEndToEnd_SubscriberReceivesFrames(t *testing.T) {
	reg := newFakeRegistrar()
	s, _ := newScheduler(t, &fakeDiags{}, reg)

	if err := s.Start(); err != nil {
		t.Fatalf("Start err=%v", err)
	}
	defer s.Stop()

	resp, err := http.Get(fmt.Sprintf("http://%s/", s.Addr()))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	reg.fire("save", 3)

	// Read frames until the records show up; ticks may interleave
	// with the event burst, so only the exact score is not asserted
	// here (the tick-level tests pin it down).
	r := bufio.NewReader(resp.Body)
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var m measure.Measurement
		if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		if m.Time != 5 {
			t.Fatalf("time: got %d want 5", m.Time)
		}
		if m.Activity > 0 {
			return // the recorded events reached a broadcast frame
		}
	}
	t.Fatalf("never observed a frame with recorded activity")
}

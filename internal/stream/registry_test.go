// internal/stream/registry_test.go
package stream

import (
	"errors"
	"fmt"
	"testing"
)

// ---- fake subscriber ----

type fakeSubscriber struct {
	id     string
	fail   bool
	frames [][]byte
	closed bool
}

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Send(frame []byte) error {
	if f.fail {
		return errors.New("connection gone")
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeSubscriber) Close() error {
	f.closed = true
	return nil
}

// ---- tests ----

func TestBroadcast_DeliversToAll(t *testing.T) {
	r := NewRegistry()
	a := &fakeSubscriber{id: "a"}
	b := &fakeSubscriber{id: "b"}
	r.Add(a)
	r.Add(b)

	r.Broadcast([]byte("frame-1"))

	if len(a.frames) != 1 || len(b.frames) != 1 {
		t.Fatalf("expected 1 frame each, got a=%d b=%d", len(a.frames), len(b.frames))
	}
}

func TestBroadcast_PrunesDeadSubscriberInSamePass(t *testing.T) {
	r := NewRegistry()
	a := &fakeSubscriber{id: "a", fail: true}
	b := &fakeSubscriber{id: "b"}
	r.Add(a)
	r.Add(b)

	r.Broadcast([]byte("frame-1"))

	// B got the frame; A was closed and removed as part of the pass.
	if len(b.frames) != 1 {
		t.Fatalf("live subscriber missed the frame")
	}
	if !a.closed {
		t.Fatalf("dead subscriber was not closed")
	}
	if r.Len() != 1 {
		t.Fatalf("dead subscriber still registered: len=%d", r.Len())
	}

	// The next pass only reaches B.
	r.Broadcast([]byte("frame-2"))
	if len(b.frames) != 2 {
		t.Fatalf("expected 2 frames on b, got %d", len(b.frames))
	}
	if len(a.frames) != 0 {
		t.Fatalf("dropped subscriber received frames: %d", len(a.frames))
	}
}

func TestBroadcast_AllDead(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 3; i++ {
		r.Add(&fakeSubscriber{id: fmt.Sprintf("s%d", i), fail: true})
	}

	r.Broadcast([]byte("frame"))

	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got len=%d", r.Len())
	}
}

func TestClear_ClosesAndEmpties(t *testing.T) {
	r := NewRegistry()
	a := &fakeSubscriber{id: "a"}
	b := &fakeSubscriber{id: "b"}
	r.Add(a)
	r.Add(b)

	r.Clear()

	if !a.closed || !b.closed {
		t.Fatalf("Clear must close every subscriber")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry after Clear, got len=%d", r.Len())
	}

	// Clear again is a no-op.
	r.Clear()
}

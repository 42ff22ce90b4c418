// internal/stream/registry.go
package stream

import (
	"log"
	"sync"
)

// Registry tracks live outbound streaming connections.
// Order is irrelevant for broadcast semantics but kept stable
// (append order) for diagnostics.
type Registry struct {
	mu   sync.Mutex
	subs []Subscriber
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a subscriber to the live set.
// Never blocked by an in-flight broadcast: broadcasts write to a
// snapshot of the set, not under this lock.
func (r *Registry) Add(s Subscriber) {
	r.mu.Lock()
	r.subs = append(r.subs, s)
	n := len(r.subs)
	r.mu.Unlock()

	log.Printf("stream: subscriber added (id=%s live=%d)", s.ID(), n)
}

// Len returns the number of live subscribers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Broadcast writes frame to every live subscriber. Any subscriber
// whose write fails is closed and removed in this same pass; there is
// no retry and no separate sweep. One subscriber's failure never
// reaches another subscriber or the caller.
func (r *Registry) Broadcast(frame []byte) {
	r.mu.Lock()
	snapshot := make([]Subscriber, len(r.subs))
	copy(snapshot, r.subs)
	r.mu.Unlock()

	var dead []Subscriber
	for _, s := range snapshot {
		if err := s.Send(frame); err != nil {
			log.Printf("stream: dropping subscriber (id=%s): %v", s.ID(), err)
			_ = s.Close()
			dead = append(dead, s)
		}
	}

	if len(dead) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range dead {
		for i, s := range r.subs {
			if s == d {
				r.subs = append(r.subs[:i], r.subs[i+1:]...)
				break
			}
		}
	}
}

// Clear closes and removes every subscriber. Used on service stop.
func (r *Registry) Clear() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
}

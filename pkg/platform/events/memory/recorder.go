package memory

import (
	"context"
	"sync"

	"provenance/pkg/platform/events"
)

// Recorder keeps emitted events in order. It backs the in-memory deployment
// and doubles as the test publisher.
type Recorder struct {
	mu     sync.RWMutex
	events []events.Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// All returns a copy of every recorded event, oldest first.
func (r *Recorder) All() []events.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]events.Event{}, r.events...)
}

// Named filters recorded events by kind.
func (r *Recorder) Named(name events.Name) []events.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Recent returns the last limit events.
func (r *Recorder) Recent(limit int) []events.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	start := max(len(r.events)-limit, 0)
	return append([]events.Event{}, r.events[start:]...)
}

func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

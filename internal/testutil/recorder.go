package testutil

import (
	"context"
	"sync"

	"spendwise/internal/notifier"
)

// Recorder is a notifier.Publisher that keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []notifier.Event
}

// Publish records ev.
func (r *Recorder) Publish(_ context.Context, ev notifier.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events in publish order.
func (r *Recorder) Events() []notifier.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifier.Event(nil), r.events...)
}

// Names returns the recorded event names in publish order.
func (r *Recorder) Names() []string {
	events := r.Events()
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = ev.Name
	}
	return names
}

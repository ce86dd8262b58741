package notifier

import (
	"context"
	"errors"
	"sync"

	"spendwise/internal/logger"
)

// ErrClosed is returned by Subscribe after the hub has been closed.
var ErrClosed = errors.New("notifier: hub closed")

// Subscription receives the events of one owner until it is closed or
// dropped for falling behind.
type Subscription struct {
	owner  string
	events chan Event
	hub    *Hub
}

// Events returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription) Events() <-chan Event { return s.events }

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() { s.hub.remove(s) }

// Hub is the in-process fan-out. Events reach every current subscriber of
// the event's owner in publish order.
type Hub struct {
	mu     sync.Mutex
	buffer int
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

// NewHub creates a hub whose subscribers buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		buffer: buffer,
		subs:   make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers a new subscriber for owner's events.
func (h *Hub) Subscribe(owner string) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	sub := &Subscription{owner: owner, events: make(chan Event, h.buffer), hub: h}
	if h.subs[owner] == nil {
		h.subs[owner] = make(map[*Subscription]struct{})
	}
	h.subs[owner][sub] = struct{}{}

	logger.Named("notifier").Debugw("subscriber connected", "owner", owner, "subscribers", len(h.subs[owner]))
	return sub, nil
}

// Publish delivers ev without blocking. A subscriber whose buffer is full
// is dropped and its channel closed.
func (h *Hub) Publish(_ context.Context, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[ev.Owner] {
		select {
		case sub.events <- ev:
		default:
			logger.Named("notifier").Infow("dropping slow subscriber", "owner", ev.Owner, "event", ev.Name)
			h.removeLocked(sub)
		}
	}
}

// SubscriberCount returns the number of live subscriptions for owner.
func (h *Hub) SubscriberCount(owner string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[owner])
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, set := range h.subs {
		for sub := range set {
			h.removeLocked(sub)
		}
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *Subscription) {
	set, ok := h.subs[sub.owner]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.owner)
	}
	close(sub.events)
	logger.Named("notifier").Debugw("subscriber disconnected", "owner", sub.owner)
}

// Package notifier is the Change Notifier: it fans mutation events out to the
// clients connected on behalf of the record owner. Delivery is best-effort;
// there is no persistence and no replay.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event names pushed to clients.
const (
	ExpenseCreated  = "expenseCreated"
	ExpenseUpdated  = "expenseUpdated"
	ExpenseDeleted  = "expenseDeleted"
	CategoryCreated = "categoryCreated"
	CategoryUpdated = "categoryUpdated"
	CategoryDeleted = "categoryDeleted"
)

// Event is one named change. Data holds the full record, or {"id": ...}
// for deletions.
type Event struct {
	Name  string          `json:"name"`
	Owner string          `json:"owner"`
	Data  json.RawMessage `json:"data"`
}

// Deleted is the payload of deletion events.
type Deleted struct {
	ID string `json:"id"`
}

// NewEvent encodes payload into an event for owner.
func NewEvent(name, owner string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return Event{Name: name, Owner: owner, Data: data}, nil
}

// Publisher accepts events for delivery. Publish must not block on
// subscribers and never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev Event)

// Publish calls f(ctx, ev).
func (f PublisherFunc) Publish(ctx context.Context, ev Event) { f(ctx, ev) }

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, Event) {})

// Package events publishes notifications about writes to the directory so
// downstream consumers do not have to poll the database.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	UserRegistered = "user.registered"
	UserDeleted    = "user.deleted"
	UsersCleared   = "users.cleared"
	NumberSaved    = "number.saved"
	NumberDeleted  = "number.deleted"
	NumbersCleared = "numbers.cleared"
)

// Event describes one completed write. ID is set for single-row events and
// Count for bulk deletes.
type Event struct {
	Type       string    `json:"type"`
	Resource   string    `json:"resource"`
	ID         int64     `json:"id,omitempty"`
	Count      int64     `json:"count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New returns an Event of the given type stamped with the current UTC time.
func New(typ, resource string) Event {
	return Event{Type: typ, Resource: resource, OccurredAt: time.Now().UTC()}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }
func (discard) Close() error                         { return nil }

// Package audit defines the append-only event trail written on every visitor
// transition. Events are immutable once appended; stores expose no update or
// delete path.
package audit

import (
	"context"
	"time"

	id "gatepass/pkg/domain"
)

// EventKind names what happened.
type EventKind string

const (
	EventVisitorCreated    EventKind = "visitor_created"
	EventVisitorApproved   EventKind = "visitor_approved"
	EventVisitorDenied     EventKind = "visitor_denied"
	EventVisitorCheckedIn  EventKind = "visitor_checked_in"
	EventVisitorCheckedOut EventKind = "visitor_checked_out"
	EventRoleChanged       EventKind = "role_changed"
)

var knownKinds = map[EventKind]struct{}{
	EventVisitorCreated:    {},
	EventVisitorApproved:   {},
	EventVisitorDenied:     {},
	EventVisitorCheckedIn:  {},
	EventVisitorCheckedOut: {},
	EventRoleChanged:       {},
}

// IsValid reports whether k is one of the declared kinds.
func (k EventKind) IsValid() bool {
	_, ok := knownKinds[k]
	return ok
}

// Event is one audit record. SubjectID is usually a visitor ID but is kept as
// a string so role_changed events can reference users.
type Event struct {
	ID         id.EventID
	Kind       EventKind
	ActorID    id.UserID
	SubjectID  string
	Payload    map[string]string
	OccurredAt time.Time
}

// Store appends events. It is the only write path into the trail.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader is implemented by stores that can serve the audit feed.
type Reader interface {
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	ListBySubject(ctx context.Context, subjectID string) ([]Event, error)
}

// Normalize fills the ID and timestamp when the caller left them zero and
// copies the payload so later mutation by the caller cannot reach the store.
func Normalize(event Event, now time.Time) Event {
	if event.ID.IsNil() {
		event.ID = id.NewEventID()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = now
	}
	payload := make(map[string]string, len(event.Payload))
	for k, v := range event.Payload {
		payload[k] = v
	}
	event.Payload = payload
	return event
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "gatepass/pkg/domain"
	audit "gatepass/pkg/platform/audit"
	txcontext "gatepass/pkg/platform/tx"
)

// Store writes audit events to the append-only events table. When the
// context carries a transaction the insert joins it, so an event commits
// together with the visitor update that produced it.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts one event. Duplicate IDs are ignored so retried inserts stay
// idempotent.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if !event.Kind.IsValid() {
		return fmt.Errorf("unknown audit event kind %q", event.Kind)
	}
	event = audit.Normalize(event, time.Now())

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	var actor *uuid.UUID
	if !event.ActorID.IsNil() {
		a := uuid.UUID(event.ActorID)
		actor = &a
	}

	query := `
		INSERT INTO events (id, kind, actor_id, subject_id, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = txcontext.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(event.ID),
		string(event.Kind),
		actor,
		event.SubjectID,
		payload,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

const selectEvents = `
	SELECT id, kind, actor_id, subject_id, payload, occurred_at
	FROM events
`

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectEvents+` ORDER BY occurred_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListBySubject returns a subject's history oldest first.
func (s *Store) ListBySubject(ctx context.Context, subjectID string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectEvents+` WHERE subject_id = $1 ORDER BY occurred_at ASC`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("query subject events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			eventID uuid.UUID
			kind    string
			actor   uuid.NullUUID
			payload []byte
			event   audit.Event
		)
		if err := rows.Scan(&eventID, &kind, &actor, &event.SubjectID, &payload, &event.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = id.EventID(eventID)
		event.Kind = audit.EventKind(kind)
		if actor.Valid {
			event.ActorID = id.UserID(actor.UUID)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &event.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal audit payload: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"gatepass/internal/visitor/models"
	id "gatepass/pkg/domain"
	"gatepass/pkg/platform/sentinel"
	txcontext "gatepass/pkg/platform/tx"
)

const visitorColumns = `id, name, phone, purpose, host_household_id, status, approved_by,
	approved_at, checked_in_at, checked_out_at, scheduled_time, created_at`

const uniqueViolation = "23505"

// PostgresStore persists visitors in PostgreSQL. It is pure I/O: transition
// rules live in the service, which passes the expected source status to
// UpdateStatus.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, v *models.Visitor) error {
	query := `
		INSERT INTO visitors (id, name, phone, purpose, host_household_id, status, approved_by,
			approved_at, checked_in_at, checked_out_at, scheduled_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(v.ID),
		v.Name,
		v.Phone,
		nullString(v.Purpose),
		uuid.UUID(v.HostHouseholdID),
		string(v.Status),
		nullUserID(v.ApprovedBy),
		v.ApprovedAt,
		v.CheckedInAt,
		v.CheckedOutAt,
		v.ScheduledTime,
		v.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert visitor: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, visitorID id.VisitorID) (*models.Visitor, error) {
	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE id = $1`
	v, err := scanVisitor(txcontext.Pick(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(visitorID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find visitor: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) Find(ctx context.Context, q models.Query) ([]*models.Visitor, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if q.HouseholdID != nil {
		where = append(where, "host_household_id = "+arg(uuid.UUID(*q.HouseholdID)))
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, st := range q.Statuses {
			statuses[i] = string(st)
		}
		where = append(where, "status = ANY("+arg(pq.Array(statuses))+"::text[])")
	}
	if q.NameContains != "" {
		where = append(where, `name ILIKE '%' || `+arg(escapeLike(q.NameContains))+` || '%' ESCAPE '\'`)
	}

	query := `SELECT ` + visitorColumns + ` FROM visitors`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`
	if q.Limit > 0 {
		query += ` LIMIT ` + arg(q.Limit)
	}

	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find visitors: %w", err)
	}
	defer rows.Close()

	var out []*models.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visitor: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visitors: %w", err)
	}
	return out, nil
}

// UpdateStatus applies change only while the row is still in status from.
// A miss is resolved into ErrNotFound or ErrConflict.
func (s *PostgresStore) UpdateStatus(ctx context.Context, visitorID id.VisitorID, from models.Status, change models.StatusChange) (*models.Visitor, error) {
	query := `
		UPDATE visitors
		SET status = $3,
			approved_by = COALESCE($4, approved_by),
			approved_at = COALESCE($5, approved_at),
			checked_in_at = COALESCE($6, checked_in_at),
			checked_out_at = COALESCE($7, checked_out_at)
		WHERE id = $1 AND status = $2
		RETURNING ` + visitorColumns
	exec := txcontext.Pick(ctx, s.db)
	v, err := scanVisitor(exec.QueryRowContext(ctx, query,
		uuid.UUID(visitorID),
		string(from),
		string(change.To),
		nullUserID(change.ApprovedBy),
		change.ApprovedAt,
		change.CheckedInAt,
		change.CheckedOutAt,
	))
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update visitor status: %w", err)
	}

	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM visitors WHERE id = $1)`, uuid.UUID(visitorID)).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check visitor exists: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrConflict
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVisitor(row scanner) (*models.Visitor, error) {
	var (
		v            models.Visitor
		visitorID    uuid.UUID
		householdID  uuid.UUID
		purpose      sql.NullString
		status       string
		approvedBy   uuid.NullUUID
		approvedAt   sql.NullTime
		checkedInAt  sql.NullTime
		checkedOutAt sql.NullTime
		scheduled    sql.NullTime
	)
	if err := row.Scan(&visitorID, &v.Name, &v.Phone, &purpose, &householdID, &status, &approvedBy,
		&approvedAt, &checkedInAt, &checkedOutAt, &scheduled, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.ID = id.VisitorID(visitorID)
	v.HostHouseholdID = id.HouseholdID(householdID)
	v.Purpose = purpose.String
	v.Status = models.Status(status)
	if approvedBy.Valid {
		approver := id.UserID(approvedBy.UUID)
		v.ApprovedBy = &approver
	}
	v.ApprovedAt = timePtr(approvedAt)
	v.CheckedInAt = timePtr(checkedInAt)
	v.CheckedOutAt = timePtr(checkedOutAt)
	v.ScheduledTime = timePtr(scheduled)
	return &v, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	at := t.Time
	return &at
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullUserID(u *id.UserID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*u), Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

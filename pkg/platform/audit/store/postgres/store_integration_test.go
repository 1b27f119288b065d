//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "gatepass/pkg/domain"
	audit "gatepass/pkg/platform/audit"
	auditpostgres "gatepass/pkg/platform/audit/store/postgres"
	txcontext "gatepass/pkg/platform/tx"
	"gatepass/pkg/testutil"
	"gatepass/pkg/testutil/containers"
)

func TestAuditStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.GetManager().GetPostgres(t)
	store := auditpostgres.New(pg.DB)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	testutil.Given(t, "a visitor with a created and an approved event", func(t *testing.T) {
		require.NoError(t, pg.TruncateTables(ctx, "events"))
		subject := uuid.NewString()
		actor := id.UserID(uuid.New())

		require.NoError(t, store.Append(ctx, audit.Event{
			Kind:       audit.EventVisitorCreated,
			ActorID:    actor,
			SubjectID:  subject,
			Payload:    map[string]string{"visitor_name": "Ramesh Kumar", "purpose": "delivery"},
			OccurredAt: base,
		}))
		require.NoError(t, store.Append(ctx, audit.Event{
			Kind:       audit.EventVisitorApproved,
			ActorID:    actor,
			SubjectID:  subject,
			Payload:    map[string]string{"visitor_name": "Ramesh Kumar", "approved_by": "Priya"},
			OccurredAt: base.Add(time.Minute),
		}))

		testutil.When(t, "reading the subject history", func(t *testing.T) {
			events, err := store.ListBySubject(ctx, subject)
			require.NoError(t, err)

			testutil.Then(t, "events come back oldest first with payloads", func(t *testing.T) {
				require.Len(t, events, 2)
				assert.Equal(t, audit.EventVisitorCreated, events[0].Kind)
				assert.Equal(t, actor, events[0].ActorID)
				assert.Equal(t, "delivery", events[0].Payload["purpose"])
				assert.Equal(t, "Priya", events[1].Payload["approved_by"])
				assert.False(t, events[0].ID.IsNil())
			})
		})

		testutil.When(t, "reading the recent feed", func(t *testing.T) {
			events, err := store.ListRecent(ctx, 1)
			require.NoError(t, err)

			testutil.Then(t, "the newest event comes first", func(t *testing.T) {
				require.Len(t, events, 1)
				assert.Equal(t, audit.EventVisitorApproved, events[0].Kind)
			})
		})

		testutil.When(t, "someone tries to rewrite history", func(t *testing.T) {
			_, err := pg.DB.ExecContext(ctx, `DELETE FROM events WHERE subject_id = $1`, subject)

			testutil.Then(t, "the append-only trigger refuses", func(t *testing.T) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "append-only")
			})
		})
	})

	testutil.Given(t, "an event appended inside a rolled back transaction", func(t *testing.T) {
		require.NoError(t, pg.TruncateTables(ctx, "events"))
		subject := uuid.NewString()
		errRollback := errors.New("visitor update failed")

		err := txcontext.NewSQLRunner(pg.DB).RunInTx(ctx, func(ctx context.Context) error {
			require.NoError(t, store.Append(ctx, audit.Event{Kind: audit.EventVisitorDenied, SubjectID: subject}))
			return errRollback
		})
		require.ErrorIs(t, err, errRollback)

		testutil.Then(t, "nothing is persisted", func(t *testing.T) {
			events, err := store.ListBySubject(ctx, subject)
			require.NoError(t, err)
			assert.Empty(t, events)
		})
	})

	testutil.Given(t, "an unknown event kind", func(t *testing.T) {
		err := store.Append(ctx, audit.Event{Kind: "visitor_teleported", SubjectID: uuid.NewString()})

		testutil.Then(t, "append rejects it", func(t *testing.T) {
			assert.Error(t, err)
		})
	})
}

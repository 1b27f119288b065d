//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gatepass/internal/visitor/models"
	"gatepass/internal/visitor/store"
	id "gatepass/pkg/domain"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "events", "visitors"))
}

func newVisitor(name string, household id.HouseholdID, createdAt time.Time) *models.Visitor {
	return &models.Visitor{
		ID:              id.NewVisitorID(),
		Name:            name,
		Phone:           "9876543210",
		Purpose:         "delivery",
		HostHouseholdID: household,
		Status:          models.StatusPending,
		CreatedAt:       createdAt.UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	h := id.HouseholdID(uuid.New())
	v := newVisitor("Ramesh Kumar", h, time.Now())
	s.Require().NoError(s.store.Insert(ctx, v))

	found, err := s.store.FindByID(ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(v.Name, found.Name)
	s.Equal(v.HostHouseholdID, found.HostHouseholdID)
	s.Equal(models.StatusPending, found.Status)
	s.Nil(found.ApprovedBy)
	s.True(v.CreatedAt.Equal(found.CreatedAt))

	s.ErrorIs(s.store.Insert(ctx, v), sentinel.ErrConflict)

	_, err = s.store.FindByID(ctx, id.NewVisitorID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFindFilters() {
	ctx := context.Background()
	h1 := id.HouseholdID(uuid.New())
	h2 := id.HouseholdID(uuid.New())
	base := time.Now().Add(-time.Hour)

	smith := newVisitor("John Smith", h1, base)
	doe := newVisitor("John Doe", h1, base.Add(time.Minute))
	percent := newVisitor("100% Real", h2, base.Add(2*time.Minute))
	for _, v := range []*models.Visitor{smith, doe, percent} {
		s.Require().NoError(s.store.Insert(ctx, v))
	}

	got, err := s.store.Find(ctx, models.Query{NameContains: "john"})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("John Doe", got[0].Name)
	s.Equal("John Smith", got[1].Name)

	got, err = s.store.Find(ctx, models.Query{HouseholdID: &h2, Statuses: []models.Status{models.StatusPending}})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("100% Real", got[0].Name)

	got, err = s.store.Find(ctx, models.Query{NameContains: "0%"})
	s.Require().NoError(err)
	s.Len(got, 1)

	got, err = s.store.Find(ctx, models.Query{NameContains: "_"})
	s.Require().NoError(err)
	s.Empty(got)

	got, err = s.store.Find(ctx, models.Query{Statuses: []models.Status{models.StatusApproved}})
	s.Require().NoError(err)
	s.Empty(got)

	got, err = s.store.Find(ctx, models.Query{Limit: 1})
	s.Require().NoError(err)
	s.Len(got, 1)
}

func (s *PostgresStoreSuite) TestUpdateStatus() {
	ctx := context.Background()
	h := id.HouseholdID(uuid.New())
	actor := id.UserID(uuid.New())
	now := time.Now().UTC().Truncate(time.Microsecond)

	v := newVisitor("Ramesh", h, now)
	s.Require().NoError(s.store.Insert(ctx, v))

	approved, err := s.store.UpdateStatus(ctx, v.ID, models.StatusPending,
		models.NewStatusChange(models.TransitionApprove, actor, now))
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)
	s.Require().NotNil(approved.ApprovedBy)
	s.Equal(actor, *approved.ApprovedBy)

	checkedIn, err := s.store.UpdateStatus(ctx, v.ID, models.StatusApproved,
		models.NewStatusChange(models.TransitionCheckIn, actor, now.Add(time.Minute)))
	s.Require().NoError(err)
	s.Equal(models.StatusCheckedIn, checkedIn.Status)
	s.Require().NotNil(checkedIn.ApprovedBy, "approval fields survive later transitions")

	_, err = s.store.UpdateStatus(ctx, v.ID, models.StatusPending,
		models.NewStatusChange(models.TransitionDeny, actor, now))
	s.ErrorIs(err, sentinel.ErrConflict)

	_, err = s.store.UpdateStatus(ctx, id.NewVisitorID(), models.StatusPending,
		models.NewStatusChange(models.TransitionDeny, actor, now))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentApprove verifies the conditional update admits exactly one
// winner among racing decisions.
func (s *PostgresStoreSuite) TestConcurrentApprove() {
	ctx := context.Background()
	v := newVisitor("Contested", id.HouseholdID(uuid.New()), time.Now())
	s.Require().NoError(s.store.Insert(ctx, v))

	const goroutines = 25
	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			change := models.NewStatusChange(models.TransitionApprove, id.UserID(uuid.New()), time.Now())
			_, err := s.store.UpdateStatus(ctx, v.ID, models.StatusPending, change)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

package service

import (
	"context"
	"time"

	"gatepass/internal/visitor/models"
	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/identity"
	audit "gatepass/pkg/platform/audit"
)

const maxEventLimit = 50

// Get returns one visitor the caller may view.
func (s *Service) Get(ctx context.Context, caller identity.Caller, visitorID id.VisitorID) (v *models.Visitor, err error) {
	ctx, span := s.startSpan(ctx, "get")
	defer func() { endSpan(span, err) }()

	v, err = s.load(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if !models.PolicyView.Allows(caller, v.HostHouseholdID) {
		return nil, s.deny(ctx, "view", caller, "you are not allowed to view this visitor")
	}
	return v, nil
}

// List returns the visitors caller may view, newest first. An empty or
// unrecognized status filter lists every status.
func (s *Service) List(ctx context.Context, caller identity.Caller, statusFilter string) ([]*models.Visitor, error) {
	q := models.Query{}
	if st := models.ParseStatusFilter(statusFilter); st != nil {
		q.Statuses = []models.Status{*st}
	}
	return s.Search(ctx, caller, models.PolicyView, q)
}

// Search runs q restricted to the visitors policy lets caller reach. A
// caller entitled to nothing gets an empty result, not an error.
func (s *Service) Search(ctx context.Context, caller identity.Caller, policy models.Policy, q models.Query) (out []*models.Visitor, err error) {
	ctx, span := s.startSpan(ctx, "search")
	defer func() { endSpan(span, err) }()

	scoped, ok := policy.Scope(caller, q)
	if !ok {
		return []*models.Visitor{}, nil
	}

	start := time.Now()
	out, err = s.store.Find(ctx, scoped)
	s.metrics.ObserveListLatency(time.Since(start))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list visitors")
	}
	if out == nil {
		out = []*models.Visitor{}
	}
	return out, nil
}

// ListEvents returns the most recent audit events for admins and committee
// members. limit is clamped to [1, 50]; zero means 50.
func (s *Service) ListEvents(ctx context.Context, caller identity.Caller, limit int) (events []audit.Event, err error) {
	ctx, span := s.startSpan(ctx, "list_events")
	defer func() { endSpan(span, err) }()

	if !models.PolicyEvents.Allows(caller, id.HouseholdID{}) {
		return nil, s.deny(ctx, "list_events", caller, "only admins and committee members may read the event log")
	}
	if s.events == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "event feed is not configured")
	}
	if limit <= 0 || limit > maxEventLimit {
		limit = maxEventLimit
	}
	events, err = s.events.ListRecent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

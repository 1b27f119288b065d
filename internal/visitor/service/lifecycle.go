package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"gatepass/internal/notify"
	"gatepass/internal/visitor/models"
	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/identity"
	audit "gatepass/pkg/platform/audit"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/requestcontext"
)

// Create registers a pending visitor for the caller's household. Admins may
// name another household with req.HostHouseholdID.
func (s *Service) Create(ctx context.Context, caller identity.Caller, req models.CreateVisitorRequest) (v *models.Visitor, err error) {
	ctx, span := s.startSpan(ctx, "create")
	defer func() { endSpan(span, err) }()

	if !models.PolicyCreate.Allows(caller, id.HouseholdID{}) {
		return nil, s.deny(ctx, "create", caller, "only residents and admins may register visitors")
	}
	household, err := hostHousehold(caller, req.HostHouseholdID)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	v = &models.Visitor{
		ID:              id.NewVisitorID(),
		Name:            req.Name,
		Phone:           req.Phone,
		Purpose:         req.Purpose,
		HostHouseholdID: household,
		Status:          models.StatusPending,
		ScheduledTime:   req.ScheduledTime,
		CreatedAt:       requestcontext.Now(ctx),
	}
	if err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Insert(ctx, v); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create visitor")
		}
		return s.appendEvent(ctx, createdEvent(caller, v))
	}); err != nil {
		return nil, err
	}

	s.metrics.IncOperation("create")
	s.logger.InfoContext(ctx, "visitor created",
		"request_id", requestcontext.RequestID(ctx),
		"visitor_id", v.ID.String(),
		"user_id", caller.ID.String(),
	)
	s.notify(ctx, notify.TopicGuards, createdMessage(caller, v))
	return v, nil
}

func hostHousehold(caller identity.Caller, requested *id.HouseholdID) (id.HouseholdID, error) {
	if requested != nil {
		if caller.HasRole(identity.RoleAdmin) || caller.BelongsTo(*requested) {
			return *requested, nil
		}
		return id.HouseholdID{}, dErrors.New(dErrors.CodeForbidden, "you may only register visitors for your own household")
	}
	if caller.HouseholdID == nil {
		return id.HouseholdID{}, dErrors.New(dErrors.CodeInvalidState, "a household is required to register visitors")
	}
	return *caller.HouseholdID, nil
}

// Approve moves a pending visitor to approved.
func (s *Service) Approve(ctx context.Context, caller identity.Caller, visitorID id.VisitorID) (*models.Visitor, error) {
	return s.transition(ctx, caller, visitorID, models.TransitionApprove, "")
}

// Deny moves a pending visitor to denied, recording reason.
func (s *Service) Deny(ctx context.Context, caller identity.Caller, visitorID id.VisitorID, reason string) (*models.Visitor, error) {
	return s.transition(ctx, caller, visitorID, models.TransitionDeny, models.NormalizeReason(reason))
}

// CheckIn records an approved visitor's arrival.
func (s *Service) CheckIn(ctx context.Context, caller identity.Caller, visitorID id.VisitorID) (*models.Visitor, error) {
	return s.transition(ctx, caller, visitorID, models.TransitionCheckIn, "")
}

// CheckOut records a checked-in visitor's departure.
func (s *Service) CheckOut(ctx context.Context, caller identity.Caller, visitorID id.VisitorID) (*models.Visitor, error) {
	return s.transition(ctx, caller, visitorID, models.TransitionCheckOut, "")
}

// transition runs one status change: authorize, check the source state,
// compare-and-swap with the audit append in the same unit of work, then
// notify. Errors are returned as-is and never retried.
func (s *Service) transition(ctx context.Context, caller identity.Caller, visitorID id.VisitorID, t models.Transition, reason string) (updated *models.Visitor, err error) {
	op := string(t)
	ctx, span := s.startSpan(ctx, op)
	span.SetAttributes(attribute.String("visitor.id", visitorID.String()))
	defer func() { endSpan(span, err) }()

	current, err := s.load(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if !models.PolicyFor(t).Allows(caller, current.HostHouseholdID) {
		return nil, s.deny(ctx, op, caller, "you are not allowed to "+op+" this visitor")
	}
	if current.Status != t.From() || !current.Status.CanTransitionTo(t.To()) {
		return nil, dErrors.New(dErrors.CodeInvalidState,
			"visitor is "+current.Status.String()+", expected "+t.From().String())
	}

	change := models.NewStatusChange(t, caller.ID, requestcontext.Now(ctx))
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.store.UpdateStatus(ctx, visitorID, t.From(), change)
		if err != nil {
			return err
		}
		return s.appendEvent(ctx, transitionEvent(caller, updated, t, reason))
	})
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			s.metrics.IncConflict(op)
			s.logger.InfoContext(ctx, "visitor transition lost race",
				"request_id", requestcontext.RequestID(ctx),
				"visitor_id", visitorID.String(),
				"operation", op,
			)
			return nil, dErrors.New(dErrors.CodeConflict, "visitor was updated by someone else")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "visitor not found")
		case dErrors.HasCode(err, dErrors.CodeInternal):
			return nil, err
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update visitor")
		}
	}

	s.metrics.IncOperation(op)
	s.logger.InfoContext(ctx, "visitor status changed",
		"request_id", requestcontext.RequestID(ctx),
		"visitor_id", visitorID.String(),
		"user_id", caller.ID.String(),
		"from", t.From().String(),
		"to", t.To().String(),
	)
	s.notify(ctx, transitionTopic(t, updated), transitionMessage(t, updated))
	return updated, nil
}

func (s *Service) appendEvent(ctx context.Context, event audit.Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = requestcontext.Now(ctx)
	}
	if err := s.auditLog.Append(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func transitionTopic(t models.Transition, v *models.Visitor) string {
	switch t {
	case models.TransitionCheckIn, models.TransitionCheckOut:
		return notify.HouseholdTopic(v.HostHouseholdID)
	default:
		return notify.TopicGuards
	}
}

// Package service is the visitor access lifecycle engine. It owns the status
// graph, the authorization rule for every operation, and the ordering
// persistence -> audit -> notification on every transition.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gatepass/internal/notify"
	"gatepass/internal/visitor/metrics"
	"gatepass/internal/visitor/models"
	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/identity"
	audit "gatepass/pkg/platform/audit"
	"gatepass/pkg/platform/sentinel"
	txcontext "gatepass/pkg/platform/tx"
	"gatepass/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Notifier

// Store is the visitor persistence port. UpdateStatus must be a
// compare-and-swap on the current status.
type Store interface {
	Insert(ctx context.Context, v *models.Visitor) error
	FindByID(ctx context.Context, visitorID id.VisitorID) (*models.Visitor, error)
	Find(ctx context.Context, q models.Query) ([]*models.Visitor, error)
	UpdateStatus(ctx context.Context, visitorID id.VisitorID, from models.Status, change models.StatusChange) (*models.Visitor, error)
}

// Notifier is fire-and-forget: it must not block and reports nothing.
type Notifier interface {
	Notify(ctx context.Context, topic string, msg notify.Message)
}

// Service orchestrates visitor lifecycle operations.
type Service struct {
	store    Store
	auditLog audit.Store
	events   audit.Reader
	notifier Notifier
	tx       txcontext.Runner
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithTxRunner sets the unit of work that makes a status change and its
// audit event commit together.
func WithTxRunner(r txcontext.Runner) Option {
	return func(s *Service) {
		s.tx = r
	}
}

// WithEventReader sets the source for ListEvents. By default the audit store
// is used when it can read.
func WithEventReader(r audit.Reader) Option {
	return func(s *Service) {
		s.events = r
	}
}

// New constructs a Service.
func New(store Store, auditLog audit.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("visitor store is required")
	}
	if auditLog == nil {
		return nil, errors.New("audit store is required")
	}
	s := &Service{
		store:    store,
		auditLog: auditLog,
		tx:       txcontext.Passthrough{},
		logger:   slog.Default(),
		tracer:   otel.Tracer("gatepass/visitor"),
	}
	if reader, ok := auditLog.(audit.Reader); ok {
		s.events = reader
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) notify(ctx context.Context, topic string, msg notify.Message) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, topic, msg)
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "visitor."+name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

func (s *Service) deny(ctx context.Context, op string, caller identity.Caller, msg string) error {
	s.metrics.IncDenial(op)
	s.logger.WarnContext(ctx, "visitor operation forbidden",
		"request_id", requestcontext.RequestID(ctx),
		"operation", op,
		"user_id", caller.ID.String(),
		"roles", caller.Roles.String(),
	)
	return dErrors.New(dErrors.CodeForbidden, msg)
}

func (s *Service) load(ctx context.Context, visitorID id.VisitorID) (*models.Visitor, error) {
	v, err := s.store.FindByID(ctx, visitorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "visitor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load visitor")
	}
	return v, nil
}

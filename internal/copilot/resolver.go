package copilot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gatepass/internal/copilot/metrics"
	"gatepass/internal/visitor/models"
	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/identity"
	"gatepass/pkg/requestcontext"
)

//go:generate mockgen -source=resolver.go -destination=mocks/engine_mocks.go -package=mocks Engine

// Engine is the lifecycle engine as seen by the resolver. The resolver gets
// no privilege beyond what these operations grant the caller.
type Engine interface {
	Search(ctx context.Context, caller identity.Caller, policy models.Policy, q models.Query) ([]*models.Visitor, error)
	Approve(ctx context.Context, caller identity.Caller, visitorID id.VisitorID) (*models.Visitor, error)
	Deny(ctx context.Context, caller identity.Caller, visitorID id.VisitorID, reason string) (*models.Visitor, error)
	CheckIn(ctx context.Context, caller identity.Caller, visitorID id.VisitorID) (*models.Visitor, error)
	CheckOut(ctx context.Context, caller identity.Caller, visitorID id.VisitorID) (*models.Visitor, error)
}

const (
	defaultTimeout    = 20 * time.Second
	digestSize        = 10
	maxCandidates     = 10
	defaultDenyReason = "No reason"

	emptyReply       = "I'm here to help with visitor management."
	apologyReply     = "Sorry, I'm having trouble reaching the assistant right now. Please try again in a moment."
	noHouseholdReply = "You don't belong to any household, so I can't manage visitors for you. Please contact an administrator."

	stageFunctionCall = "function_call"
	stageReply        = "reply"
)

// Resolver maps one free-text message to at most one lifecycle operation.
// It keeps no state between calls.
type Resolver struct {
	engine  Engine
	llm     LLM
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithTimeout bounds each model round trip.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func New(engine Engine, llm LLM, opts ...Option) (*Resolver, error) {
	if engine == nil {
		return nil, errors.New("lifecycle engine is required")
	}
	if llm == nil {
		return nil, errors.New("language model client is required")
	}
	r := &Resolver{
		engine:  engine,
		llm:     llm,
		timeout: defaultTimeout,
		logger:  slog.Default(),
		tracer:  otel.Tracer("gatepass/copilot"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve runs the two-call conversation for message. Model failures become
// an apologetic reply; tool failures are folded into Details. The only
// returned error is for an empty message.
func (r *Resolver) Resolve(ctx context.Context, caller identity.Caller, message string) (*Response, error) {
	ctx, span := r.tracer.Start(ctx, "copilot.resolve")
	defer span.End()

	if r.outOfScope(caller) {
		r.metrics.IncOutcome("none", string(dErrors.CodeForbidden))
		r.logger.InfoContext(ctx, "copilot refused caller without household",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", caller.ID.String(),
		)
		return &Response{
			Reply:   noHouseholdReply,
			Details: failure(dErrors.CodeForbidden, noHouseholdReply),
		}, nil
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "message is required")
	}

	history := []Message{
		{Role: RoleSystem, Content: r.systemPrompt(ctx, caller)},
		{Role: RoleUser, Content: message},
	}

	var completion *Completion
	err := r.roundTrip(ctx, stageFunctionCall, func(ctx context.Context) error {
		var err error
		completion, err = r.llm.FunctionCall(ctx, FunctionCallRequest{
			Messages:        history,
			Tools:           Tools,
			DisableParallel: true,
		})
		return err
	})
	if err != nil {
		return &Response{Reply: apologyReply}, nil
	}

	extra := callerSecrets(caller)
	if len(completion.ToolCalls) == 0 {
		r.metrics.IncAction("none")
		reply := strings.TrimSpace(completion.Content)
		if reply == "" {
			reply = emptyReply
		}
		return &Response{Reply: Sanitize(reply, extra...)}, nil
	}

	// Parallel calls are disabled; anything after the first is ignored.
	call := completion.ToolCalls[0]
	span.SetAttributes(attribute.String("copilot.action", call.Name))
	r.metrics.IncAction(call.Name)

	result := sanitizeResult(r.execute(ctx, caller, call), extra...)
	outcome := result.Code
	if result.Success {
		outcome = "ok"
	}
	r.metrics.IncOutcome(call.Name, outcome)
	r.logger.InfoContext(ctx, "copilot action executed",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", caller.ID.String(),
		"action", call.Name,
		"outcome", outcome,
	)

	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte(`{"success":false,"message":"result unavailable"}`)
	}
	history = append(history,
		Message{Role: RoleAssistant, ToolCalls: []ToolCall{call}},
		Message{Role: RoleTool, ToolCallID: call.ID, Name: call.Name, Content: string(payload)},
	)

	var reply string
	err = r.roundTrip(ctx, stageReply, func(ctx context.Context) error {
		var err error
		reply, err = r.llm.Chat(ctx, history)
		return err
	})
	switch {
	case err != nil:
		reply = "Sorry, I'm having trouble responding right now. " + result.Message
	case strings.TrimSpace(reply) == "":
		reply = result.Message
	}

	return &Response{
		Reply:   Sanitize(reply, extra...),
		Action:  call.Name,
		Details: result,
	}, nil
}

// outOfScope reports whether caller can reach no visitors at all.
func (r *Resolver) outOfScope(caller identity.Caller) bool {
	return !caller.HasAnyRole(identity.RoleAdmin, identity.RoleGuard) && caller.HouseholdID == nil
}

func callerSecrets(caller identity.Caller) []string {
	out := []string{caller.ID.String()}
	if caller.HouseholdID != nil {
		out = append(out, caller.HouseholdID.String())
	}
	return out
}

// roundTrip runs one bounded model call and records its span, latency, and
// failure.
func (r *Resolver) roundTrip(ctx context.Context, stage string, fn func(ctx context.Context) error) error {
	ctx, span := r.tracer.Start(ctx, "copilot."+stage)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	r.metrics.ObserveRoundTrip(stage, time.Since(start))
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, stage+" failed")
		r.metrics.IncUpstreamFailure(stage)
		r.logger.WarnContext(ctx, "language model call failed",
			"request_id", requestcontext.RequestID(ctx),
			"stage", stage,
			"timed_out", errors.Is(err, context.DeadlineExceeded),
			"error", err,
		)
	}
	return err
}

func (r *Resolver) execute(ctx context.Context, caller identity.Caller, call ToolCall) *ToolResult {
	var args toolArgs
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return failure(dErrors.CodeValidation, "I couldn't understand the details of that request")
		}
	}

	if call.Name == ToolList {
		return r.list(ctx, caller, args.Status)
	}
	t, ok := toolTransitions[call.Name]
	if !ok {
		return failure(dErrors.CodeBadRequest, "Unknown action: "+call.Name)
	}
	return r.transition(ctx, caller, t, args)
}

func (r *Resolver) transition(ctx context.Context, caller identity.Caller, t models.Transition, args toolArgs) *ToolResult {
	name := strings.TrimSpace(args.VisitorName)
	if name == "" {
		return failure(dErrors.CodeValidation, "Please tell me which visitor you mean")
	}

	policy := models.PolicyFor(t)
	q := models.Query{
		NameContains: name,
		Statuses:     []models.Status{t.From()},
		Limit:        maxCandidates,
	}
	if _, ok := policy.Scope(caller, q); !ok {
		return failure(dErrors.CodeForbidden, fmt.Sprintf("You don't have permission to %s visitors", verb(t)))
	}

	candidates, err := r.engine.Search(ctx, caller, policy, q)
	if err != nil {
		return engineFailure(t, name, err)
	}
	switch len(candidates) {
	case 0:
		return notFoundResult(t, name)
	case 1:
	default:
		return ambiguousResult(candidates)
	}

	target := candidates[0]
	reason := strings.TrimSpace(args.Reason)
	if t == models.TransitionDeny && reason == "" {
		reason = defaultDenyReason
	}
	updated, err := r.apply(ctx, caller, t, target.ID, reason)
	if err != nil {
		return engineFailure(t, target.Name, err)
	}
	return successResult(t, updated, reason)
}

func (r *Resolver) apply(ctx context.Context, caller identity.Caller, t models.Transition, visitorID id.VisitorID, reason string) (*models.Visitor, error) {
	switch t {
	case models.TransitionApprove:
		return r.engine.Approve(ctx, caller, visitorID)
	case models.TransitionDeny:
		return r.engine.Deny(ctx, caller, visitorID, reason)
	case models.TransitionCheckIn:
		return r.engine.CheckIn(ctx, caller, visitorID)
	case models.TransitionCheckOut:
		return r.engine.CheckOut(ctx, caller, visitorID)
	}
	return nil, dErrors.New(dErrors.CodeBadRequest, "unsupported action")
}

func (r *Resolver) list(ctx context.Context, caller identity.Caller, rawStatus string) *ToolResult {
	filter := models.ParseStatusFilter(rawStatus)
	q := models.Query{Limit: maxListed}
	if filter != nil {
		q.Statuses = []models.Status{*filter}
	}
	visitors, err := r.engine.Search(ctx, caller, models.PolicyView, q)
	if err != nil {
		r.logger.ErrorContext(ctx, "copilot list failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return failure(dErrors.CodeInternal, "Something went wrong while listing visitors")
	}
	return listResult(visitors, filter)
}

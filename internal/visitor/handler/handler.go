package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gatepass/internal/visitor/models"
	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/identity"
	audit "gatepass/pkg/platform/audit"
	"gatepass/pkg/platform/httputil"
	"gatepass/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the lifecycle engine as seen by HTTP callers.
type Service interface {
	Create(ctx context.Context, caller identity.Caller, req models.CreateVisitorRequest) (*models.Visitor, error)
	Get(ctx context.Context, caller identity.Caller, visitorID id.VisitorID) (*models.Visitor, error)
	List(ctx context.Context, caller identity.Caller, statusFilter string) ([]*models.Visitor, error)
	Approve(ctx context.Context, caller identity.Caller, visitorID id.VisitorID) (*models.Visitor, error)
	Deny(ctx context.Context, caller identity.Caller, visitorID id.VisitorID, reason string) (*models.Visitor, error)
	CheckIn(ctx context.Context, caller identity.Caller, visitorID id.VisitorID) (*models.Visitor, error)
	CheckOut(ctx context.Context, caller identity.Caller, visitorID id.VisitorID) (*models.Visitor, error)
	ListEvents(ctx context.Context, caller identity.Caller, limit int) ([]audit.Event, error)
}

// Handler wires visitor endpoints to the lifecycle engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a visitor handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the visitor and event endpoints. The router must already
// run the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/visitors", h.HandleCreate)
	r.Get("/visitors", h.HandleList)
	r.Get("/visitors/{id}", h.HandleGet)
	r.Post("/visitors/approve", h.HandleApprove)
	r.Post("/visitors/deny", h.HandleDeny)
	r.Post("/visitors/checkin", h.HandleCheckIn)
	r.Post("/visitors/checkout", h.HandleCheckOut)
	r.Get("/events", h.HandleListEvents)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (identity.Caller, bool) {
	caller, ok := requestcontext.Caller(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return identity.Caller{}, false
	}
	return caller, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, caller identity.Caller, err error) {
	log := h.logger.WarnContext
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		log = h.logger.ErrorContext
	}
	log(ctx, "visitor request failed",
		"request_id", requestcontext.RequestID(ctx),
		"operation", op,
		"user_id", caller.ID.String(),
		"error", err,
	)
	httputil.WriteError(w, err)
}

// HandleCreate handles POST /visitors.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateVisitorRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	v, err := h.service.Create(ctx, caller, req.ToDomain())
	if err != nil {
		h.fail(ctx, w, "create", caller, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromVisitor(v))
}

// HandleList handles GET /visitors?status=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	visitors, err := h.service.List(ctx, caller, r.URL.Query().Get("status"))
	if err != nil {
		h.fail(ctx, w, "list", caller, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromVisitors(visitors))
}

// HandleGet handles GET /visitors/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	visitorID, err := id.ParseVisitorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	v, err := h.service.Get(ctx, caller, visitorID)
	if err != nil {
		h.fail(ctx, w, "get", caller, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromVisitor(v))
}

type transitionFunc func(ctx context.Context, caller identity.Caller, req *TransitionRequest) (*models.Visitor, error)

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, op string, fn transitionFunc) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	v, err := fn(ctx, caller, req)
	if err != nil {
		h.fail(ctx, w, op, caller, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromVisitor(v))
}

// HandleApprove handles POST /visitors/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "approve", func(ctx context.Context, caller identity.Caller, req *TransitionRequest) (*models.Visitor, error) {
		return h.service.Approve(ctx, caller, req.ParsedVisitorID())
	})
}

// HandleDeny handles POST /visitors/deny.
func (h *Handler) HandleDeny(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "deny", func(ctx context.Context, caller identity.Caller, req *TransitionRequest) (*models.Visitor, error) {
		return h.service.Deny(ctx, caller, req.ParsedVisitorID(), req.Reason)
	})
}

// HandleCheckIn handles POST /visitors/checkin.
func (h *Handler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "checkin", func(ctx context.Context, caller identity.Caller, req *TransitionRequest) (*models.Visitor, error) {
		return h.service.CheckIn(ctx, caller, req.ParsedVisitorID())
	})
}

// HandleCheckOut handles POST /visitors/checkout.
func (h *Handler) HandleCheckOut(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "checkout", func(ctx context.Context, caller identity.Caller, req *TransitionRequest) (*models.Visitor, error) {
		return h.service.CheckOut(ctx, caller, req.ParsedVisitorID())
	})
}

// HandleListEvents handles GET /events?limit=.
func (h *Handler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be an integer"))
			return
		}
		limit = n
	}

	events, err := h.service.ListEvents(ctx, caller, limit)
	if err != nil {
		h.fail(ctx, w, "list_events", caller, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvents(events))
}

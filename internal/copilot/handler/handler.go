package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"gatepass/internal/copilot"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/identity"
	"gatepass/pkg/platform/httputil"
	"gatepass/pkg/requestcontext"
)

const maxMessageRunes = 2000

// Resolver answers one chat message.
type Resolver interface {
	Resolve(ctx context.Context, caller identity.Caller, message string) (*copilot.Response, error)
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

func (r *ChatRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Message = strings.TrimSpace(r.Message)
	if r.Message == "" {
		return dErrors.New(dErrors.CodeValidation, "message is required")
	}
	if utf8.RuneCountInString(r.Message) > maxMessageRunes {
		return dErrors.New(dErrors.CodeValidation, "message is too long")
	}
	return nil
}

type Handler struct {
	resolver Resolver
	logger   *slog.Logger
}

func New(resolver Resolver, logger *slog.Logger) *Handler {
	return &Handler{resolver: resolver, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/chat", h.HandleChat)
}

// HandleChat handles POST /chat. Model and tool failures still produce a 200
// with an explanatory reply.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := requestcontext.Caller(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[ChatRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	resp, err := h.resolver.Resolve(ctx, caller, req.Message)
	if err != nil {
		h.logger.WarnContext(ctx, "chat request failed",
			"request_id", requestID,
			"user_id", caller.ID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

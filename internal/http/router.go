// Package httpapi assembles the chi router: shared middleware, public health
// and metrics endpoints, and the authenticated visitor and chat routes.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gatepass/internal/platform/metrics"
	"gatepass/pkg/platform/httputil"
	"gatepass/pkg/platform/middleware/auth"
	"gatepass/pkg/platform/middleware/request"
	"gatepass/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

// Deps are the router's collaborators. Nil registrars are skipped.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Validator auth.CallerValidator
	Visitors  Registrar
	Chat      Registrar
	// ChatLimit guards the chat routes only, after authentication.
	ChatLimit func(http.Handler) http.Handler
	Checks    map[string]HealthCheck
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(d.Logger))
	r.Use(d.Metrics.Middleware)

	r.Get("/health", healthHandler(d.Checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(d.Validator, d.Logger))
		if d.Visitors != nil {
			d.Visitors.Register(r)
		}
		if d.Chat != nil {
			r.Group(func(r chi.Router) {
				if d.ChatLimit != nil {
					r.Use(d.ChatLimit)
				}
				d.Chat.Register(r)
			})
		}
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}

package auth

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/identity"
	"gatepass/pkg/platform/httputil"
	"gatepass/pkg/requestcontext"
)

// CallerValidator turns a bearer token into the caller identity.
type CallerValidator interface {
	ValidateToken(tokenString string) (*identity.Caller, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller in the request context for handlers.
func RequireAuth(validator CallerValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			caller, err := validator.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(ctx, *caller)))
		})
	}
}

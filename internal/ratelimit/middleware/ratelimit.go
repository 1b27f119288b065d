// Package middleware limits how often one authenticated caller may hit a
// route class. It sits behind the auth middleware and fails open when the
// bucket store is unreachable.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gatepass/internal/ratelimit/metrics"
	"gatepass/internal/ratelimit/models"
	"gatepass/pkg/platform/httputil"
	"gatepass/pkg/requestcontext"
)

// BucketStore is a sliding-window counter keyed by string.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

type Middleware struct {
	store   BucketStore
	limit   int
	window  time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Middleware)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Middleware) {
		m.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

func New(store BucketStore, limit int, window time.Duration, opts ...Option) (*Middleware, error) {
	if store == nil {
		return nil, errors.New("bucket store is required")
	}
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limit and window must be positive")
	}
	m := &Middleware{
		store:  store,
		limit:  limit,
		window: window,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// PerCaller counts each request against the caller's bucket for class.
// Requests without a caller pass through; auth decides what to do with them.
func (m *Middleware) PerCaller(class string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			caller, ok := requestcontext.Caller(ctx)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			result, err := m.store.Allow(ctx, models.CallerKey(class, caller.ID.String()), m.limit, m.window)
			if err != nil {
				m.metrics.IncrementStoreFailures(class)
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"request_id", requestcontext.RequestID(ctx),
					"user_id", caller.ID.String(),
					"class", class,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.metrics.IncrementDenied(class)
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"request_id", requestcontext.RequestID(ctx),
					"user_id", caller.ID.String(),
					"class", class,
				)
				writeRateLimitExceeded(w, result)
				return
			}
			m.metrics.IncrementAllowed(class)
			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please wait before trying again.",
		Limit:      result.Limit,
		ResetAt:    result.ResetAt,
		RetryAfter: result.RetryAfter,
	})
}

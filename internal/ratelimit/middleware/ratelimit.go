// Package middleware throttles HTTP routes per client IP with a sliding window.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"kycflow/internal/ratelimit/metrics"
	"kycflow/internal/ratelimit/models"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/httputil"
	"kycflow/pkg/platform/middleware/metadata"
	request "kycflow/pkg/platform/middleware/request"
)

// BucketStore charges one request against a keyed sliding window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type Middleware struct {
	store    BucketStore
	policies map[models.EndpointClass]models.Policy
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Middleware)

// WithPolicy sets the budget for one endpoint class. Classes without an
// enabled policy pass through.
func WithPolicy(class models.EndpointClass, p models.Policy) Option {
	return func(m *Middleware) { m.policies[class] = p }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) { m.metrics = mt }
}

func New(store BucketStore, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:    store,
		policies: make(map[models.EndpointClass]models.Policy),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RateLimit throttles by client IP. It fails open when the store errors so an
// unavailable Redis cannot lock everyone out of login.
func (m *Middleware) RateLimit(class models.EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		policy, ok := m.policies[class]
		if !ok || !policy.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := metadata.GetClientIP(ctx)
			if ip == "" {
				ip = metadata.ClientIPFromRequest(r)
			}

			res, err := m.store.Allow(ctx, models.BucketKey(class, ip), policy.Limit, policy.Window)
			if err != nil {
				m.metrics.IncrementStoreFailure()
				m.logger.ErrorContext(ctx, "rate limit check failed",
					"error", err,
					"class", string(class),
					"request_id", request.GetRequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			m.metrics.IncrementDecision(string(class), res.Allowed)
			addRateLimitHeaders(w, res)
			if !res.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", string(class),
					"ip", ip,
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "Too many requests, please try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, res *models.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}

package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"rocr/backend/internal/platform/apperror"
	"rocr/backend/internal/platform/httpx"
	"rocr/backend/internal/server/middleware"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is whole seconds until the window resets; set only when rejected.
	RetryAfter int
}

// Limiter applies policies to keys using a Store.
type Limiter struct {
	store    Store
	now      func() time.Time
	logger   zerolog.Logger
	rejected metric.Int64Counter
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock sets the time source used to compute Retry-After.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithLogger sets the logger used to report store failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// WithMeter sets the meter for the ratelimit.rejected counter. Defaults to the global provider.
func WithMeter(m metric.Meter) Option {
	return func(l *Limiter) {
		if c, err := m.Int64Counter("ratelimit.rejected",
			metric.WithDescription("Requests rejected by the rate limiter")); err == nil {
			l.rejected = c
		}
	}
}

// NewLimiter returns a Limiter backed by store.
func NewLimiter(store Store, opts ...Option) *Limiter {
	l := &Limiter{store: store, now: time.Now, logger: zerolog.Nop()}
	WithMeter(otel.Meter("rocr/backend/ratelimit"))(l)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records a hit for key under p. Store failures fail open: the request is
// allowed and the error is logged.
func (l *Limiter) Allow(ctx context.Context, key string, p Policy) Decision {
	w, err := l.store.Hit(ctx, key, p.Window)
	if err != nil {
		l.logger.Warn().Err(err).Str("key", key).Str("policy", p.Name).Msg("rate limit store unavailable; allowing request")
		return Decision{Allowed: true, Limit: p.Max, Remaining: p.Max, ResetAt: l.now().Add(p.Window)}
	}
	d := Decision{
		Allowed:   w.Count <= p.Max,
		Limit:     p.Max,
		Remaining: max(0, p.Max-w.Count),
		ResetAt:   w.ResetAt,
	}
	if !d.Allowed {
		d.RetryAfter = ceilSeconds(w.ResetAt.Sub(l.now()))
		if l.rejected != nil {
			l.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("policy", p.Name)))
		}
	}
	return d
}

// Middleware limits requests by ClientKey under p. Counters are kept per policy, so
// stacked policies on one route each see every request exactly once.
func (l *Limiter) Middleware(p Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.Allow(r.Context(), p.Name+":"+ClientKey(r), p)
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(ceilUnix(d.ResetAt), 10))
			if !d.Allowed {
				h.Set("Retry-After", strconv.Itoa(d.RetryAfter))
				httpx.WriteError(w, apperror.New(http.StatusTooManyRequests, apperror.CodeRateLimited, p.Message).
					WithField("retryAfter", d.RetryAfter))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey is the client address joined with the request path.
func ClientKey(r *http.Request) string {
	return middleware.ClientIP(r) + ":" + r.URL.Path
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	return int((d + time.Second - 1) / time.Second)
}

func ceilUnix(t time.Time) int64 {
	ms := t.UnixMilli()
	return (ms + 999) / 1000
}

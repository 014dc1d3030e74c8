package chi

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abdul7867/SearchAi/internal/metrics"
)

const rateLimitMessage = "Too many requests from this IP, please try again later."

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a client may issue another request.
type Limiter interface {
	Name() string
	Allow(ctx context.Context, client string) (Decision, error)
}

// RateLimit rejects clients over their budget with 429 and X-RateLimit-* headers.
// Limiter failures are logged and the request is let through.
func RateLimit(l Limiter, trustProxy bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			client := ClientIP(r, trustProxy)
			d, err := l.Allow(r.Context(), client)
			if err != nil {
				logger.Warn("rate limiter unavailable", zap.String("limiter", l.Name()), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(d.Remaining, 0)))
			if !d.Allowed {
				retry := int(math.Ceil(d.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
				metrics.RateLimitedTotal.WithLabelValues(l.Name()).Inc()
				writeError(w, http.StatusTooManyRequests, rateLimitMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenBucket is an in-process per-client token bucket. Each client starts with
// a full bucket of Limit tokens which refills at Limit per window.
type TokenBucket struct {
	capacity  float64
	rate      float64 // tokens per second
	idleTTL   time.Duration
	sweepEach time.Duration
	now       func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	tokens   float64
	lastRef  time.Time
	lastSeen time.Time
}

// NewTokenBucket creates a limiter allowing limit requests per window per client.
func NewTokenBucket(limit int, window time.Duration) *TokenBucket {
	if limit < 1 {
		limit = 1
	}
	if window < time.Second {
		window = time.Second
	}
	return &TokenBucket{
		capacity:  float64(limit),
		rate:      float64(limit) / window.Seconds(),
		idleTTL:   window,
		sweepEach: time.Minute,
		now:       time.Now,
		buckets:   make(map[string]*bucket, 1024),
		lastSweep: time.Now(),
	}
}

// WithClock overrides the clock (tests).
func (l *TokenBucket) WithClock(now func() time.Time) *TokenBucket {
	l.now = now
	l.lastSweep = now()
	return l
}

// Name implements Limiter.
func (l *TokenBucket) Name() string { return "memory" }

// Allow implements Limiter.
func (l *TokenBucket) Allow(_ context.Context, client string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.sweepEach {
		l.sweepLocked(now)
	}

	b := l.buckets[client]
	if b == nil {
		b = &bucket{tokens: l.capacity, lastRef: now}
		l.buckets[client] = b
	}
	b.lastSeen = now

	if elapsed := now.Sub(b.lastRef).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.rate)
		b.lastRef = now
	}

	d := Decision{Limit: int(l.capacity)}
	if b.tokens >= 1.0 {
		b.tokens--
		d.Allowed = true
		d.Remaining = int(math.Floor(b.tokens))
		return d, nil
	}

	needed := 1.0 - b.tokens
	d.RetryAfter = time.Duration(needed / l.rate * float64(time.Second))
	return d, nil
}

func (l *TokenBucket) sweepLocked(now time.Time) {
	for client, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, client)
		}
	}
	l.lastSweep = now
}

// windowCounter is the consumer interface of the shared window counter store.
type windowCounter interface {
	Hit(ctx context.Context, client string) (int64, time.Duration, error)
}

// WindowLimiter is a fixed-window limiter backed by the database, shared by replicas.
type WindowLimiter struct {
	counter windowCounter
	limit   int
}

// NewWindowLimiter creates a limiter allowing limit requests per counter window.
func NewWindowLimiter(counter windowCounter, limit int) *WindowLimiter {
	return &WindowLimiter{counter: counter, limit: max(limit, 1)}
}

// Name implements Limiter.
func (l *WindowLimiter) Name() string { return "store" }

// Allow implements Limiter.
func (l *WindowLimiter) Allow(ctx context.Context, client string) (Decision, error) {
	n, ttl, err := l.counter.Hit(ctx, client)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{Limit: l.limit, Remaining: l.limit - int(n)}
	if int(n) <= l.limit {
		d.Allowed = true
		return d, nil
	}
	d.RetryAfter = ttl
	return d, nil
}

// ClientIP resolves the real client IP.
// If trustProxy is true, prefers CF-Connecting-IP, X-Forwarded-For (first), then X-Real-IP.
// Otherwise falls back to RemoteAddr only.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := hostNoPort(strings.TrimSpace(r.Header.Get("CF-Connecting-IP"))); ip != "" {
			return ip
		}
		if ip := hostNoPort(firstForwardedFor(r.Header.Get("X-Forwarded-For"))); ip != "" {
			return ip
		}
		if ip := hostNoPort(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != "" {
			return ip
		}
	}
	return hostNoPort(r.RemoteAddr)
}

func hostNoPort(s string) string {
	if s == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return s
}

func firstForwardedFor(xff string) string {
	xff = strings.TrimSpace(xff)
	if i := strings.IndexByte(xff, ','); i >= 0 {
		xff = xff[:i]
	}
	return strings.TrimSpace(xff)
}

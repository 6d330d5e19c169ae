package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/taskboard/taskboard/internal/api/shared"
	"github.com/taskboard/taskboard/internal/platform/logger"
	"github.com/taskboard/taskboard/internal/redact"
	"golang.org/x/time/rate"
)

// MsgTooManyRequests is the error of a rate limited response.
const MsgTooManyRequests = "Too many requests. Please try again later."

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
}

// Limiter decides whether a client may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	// Window is the period after which a rejected client may retry.
	Window() time.Duration
}

// MemoryLimiter is a per-process token bucket limiter per client.
type MemoryLimiter struct {
	limit  int
	window time.Duration

	mu        sync.Mutex
	clients   map[string]*memoryClient
	lastSweep time.Time
	now       func() time.Time
}

type memoryClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter allows limit requests per window with bursts up to limit.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*memoryClient),
		now:     time.Now,
	}
}

// Window implements Limiter.
func (l *MemoryLimiter) Window() time.Duration { return l.window }

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	c, ok := l.clients[key]
	if !ok {
		every := rate.Every(l.window / time.Duration(l.limit))
		c = &memoryClient{limiter: rate.NewLimiter(every, l.limit)}
		l.clients[key] = c
	}
	c.lastSeen = now

	allowed := c.limiter.AllowN(now, 1)
	remaining := int(c.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: allowed, Limit: l.limit, Remaining: remaining}, nil
}

// sweep drops clients idle for a full window; their buckets are full again.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) >= l.window {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// RedisLimiter is a fixed window counter shared by every server instance.
type RedisLimiter struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter allows limit requests per fixed window.
func NewRedisLimiter(client redis.UniversalClient, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, now: time.Now}
}

// Window implements Limiter.
func (l *RedisLimiter) Window() time.Duration { return l.window }

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	slot := l.now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("taskboard:ratelimit:%s:%d", key, slot)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit counter: %w", err)
	}

	count := int(incr.Val())
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: count <= l.limit, Limit: l.limit, Remaining: remaining}, nil
}

type rateLimitResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after"`
}

// RateLimit throttles /api/ requests per client IP. Limiter failures let the
// request through.
func RateLimit(limiter Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "rate_limit"))
	retryAfter := int(limiter.Window().Seconds())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, ProtectedPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)
			d, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logger.FromContextOrDefault(r.Context(), log).Warn("rate limiter unavailable",
					redact.Attr(err))
				next.ServeHTTP(w, r)
				return
			}

			if !d.Allowed {
				logger.FromContextOrDefault(r.Context(), log).Warn("rate limit exceeded",
					slog.String("client_ip", ip))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				shared.RespondWithJSON(w, r, http.StatusTooManyRequests, rateLimitResponse{
					Error:      MsgTooManyRequests,
					RetryAfter: retryAfter,
				})
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For entry, else the remote address
// without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package httpx

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/ghuser/itemsapi/pkg/logger"
)

// RedisRateLimiter is a fixed-window limiter shared by every API replica.
// Keys have the form rl:<window_seconds>:<client_ip>.
type RedisRateLimiter struct {
	rdb     redis.Cmdable
	limit   int
	window  time.Duration
	log     logger.Logger
	allowed *prometheus.CounterVec
	blocked *prometheus.CounterVec
}

// NewRedisRateLimiter registers its counters on reg. A nil reg skips
// registration, which keeps tests independent of the default registry.
func NewRedisRateLimiter(rdb redis.Cmdable, limit int, window time.Duration, reg prometheus.Registerer, log logger.Logger) (*RedisRateLimiter, error) {
	rl := &RedisRateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		log:    log,
		allowed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limiter_requests_total",
			Help: "Total requests admitted by the rate limiter",
		}, []string{"method"}),
		blocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limiter_blocked_total",
			Help: "Total requests rejected by the rate limiter",
		}, []string{"method"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{rl.allowed, rl.blocked} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return rl, nil
}

// Allow increments the caller's window counter and reports whether the
// request fits, along with the remaining budget. Redis failures fail open.
func (rl *RedisRateLimiter) Allow(ctx context.Context, ident string) (bool, int, error) {
	key := "rl:" + strconv.FormatInt(int64(rl.window.Seconds()), 10) + ":" + ident

	n, err := rl.rdb.Incr(ctx, key).Result()
	if err != nil {
		return true, rl.limit, err
	}
	if n == 1 {
		if err := rl.rdb.Expire(ctx, key, rl.window).Err(); err != nil {
			return true, rl.limit, err
		}
	}

	remaining := rl.limit - int(n)
	if remaining < 0 {
		remaining = 0
	}
	return n <= int64(rl.limit), remaining, nil
}

// Handler is the chi-compatible middleware. It must run after RealIP.
func (rl *RedisRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, remaining, err := rl.Allow(r.Context(), clientIP(r))
		if err != nil {
			rl.log.WarnContext(r.Context(), "rate limiter unavailable, allowing request", "error", err)
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !ok {
			rl.blocked.WithLabelValues(r.Method).Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			JSONError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		rl.allowed.WithLabelValues(r.Method).Inc()
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

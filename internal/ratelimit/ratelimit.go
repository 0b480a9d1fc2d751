// Package ratelimit provides Redis-based rate limiting for API endpoints.
package ratelimit

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrRateLimited is returned when a rate limit is exceeded.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter counts requests per client IP in Redis windows. A nil Limiter or a
// missing Redis connection allows every request: limiting fails open so an
// unavailable Redis never takes the API down with it.
type Limiter struct {
	redis *redis.Client
}

func NewLimiter(redis *redis.Client) *Limiter {
	return &Limiter{redis: redis}
}

// Check increments the counter for (route, ip) and reports whether the
// request is within limit requests per window.
func (l *Limiter) Check(r *http.Request, route string, limit int, window time.Duration) error {
	if l == nil || l.redis == nil {
		return nil
	}

	ip := clientIP(r)
	if ip == "" {
		return nil
	}

	key := fmt.Sprintf("ratelimit:%s:%s", route, ip)
	count, err := l.redis.Incr(r.Context(), key).Result()
	if err != nil {
		// Fail-open on Redis errors to maintain availability.
		return nil
	}
	if count == 1 {
		l.redis.Expire(r.Context(), key, window)
	}
	if int(count) > limit {
		logrus.WithFields(logrus.Fields{
			"route": route,
			"ip":    ip,
		}).Warn("Rate limit exceeded")
		return ErrRateLimited
	}
	return nil
}

// Middleware wraps a handler with a per-IP limit.
func (l *Limiter) Middleware(route string, limit int, window time.Duration, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := l.Check(r, route, limit, window); err != nil {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// With multiple proxies this is a comma-separated list; the first
		// element is the originating client.
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilLimiterAllowsRequests(t *testing.T) {
	var l *Limiter

	req := httptest.NewRequest("POST", "/api/room/create", nil)
	assert.NoError(t, l.Check(req, "room-create", 1, time.Minute))
}

func TestMissingRedisAllowsRequests(t *testing.T) {
	l := NewLimiter(nil)

	req := httptest.NewRequest("POST", "/api/contact", nil)
	assert.NoError(t, l.Check(req, "contact", 1, time.Minute))
}

func TestMiddlewarePassesThroughWithoutRedis(t *testing.T) {
	var l *Limiter
	called := false
	h := l.Middleware("contact", 1, time.Minute, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("POST", "/api/contact", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.7:52110"
	assert.Equal(t, "203.0.113.7", clientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", clientIP(req))

	// Multi-proxy chains list one hop per element; the first is the client.
	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.2, 10.0.0.3")
	assert.Equal(t, "198.51.100.4", clientIP(req))
}

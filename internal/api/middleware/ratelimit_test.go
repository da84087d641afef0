package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mahatati/mahatati/internal/api/middleware"
	"github.com/mahatati/mahatati/internal/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveFrom(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/stations", http.NoBody)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP_AllowsWithinLimit(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{RequestLimit: 5, WindowLength: time.Minute})(okHandler())

	for i := 0; i < 5; i++ {
		rec := serveFrom(handler, "192.168.1.1:12345")
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should be allowed", i+1)
	}
}

func TestRateLimitByIP_BlocksOverLimit(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{RequestLimit: 3, WindowLength: 2 * time.Minute})(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serveFrom(handler, "10.0.0.1:12345").Code)
	}

	rec := serveFrom(handler, "10.0.0.1:12345")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")
	assert.Equal(t, "120", rec.Header().Get("Retry-After"))
}

func TestRateLimitByIP_DifferentIPsHaveSeparateLimits(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{RequestLimit: 2, WindowLength: time.Minute})(okHandler())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serveFrom(handler, "172.16.0.1:12345").Code)
	}

	assert.Equal(t, http.StatusTooManyRequests, serveFrom(handler, "172.16.0.1:12345").Code)
	assert.Equal(t, http.StatusOK, serveFrom(handler, "172.16.0.2:12345").Code)
}

func TestRateLimitByUser_KeysOnPrincipal(t *testing.T) {
	limiter := middleware.RateLimitByUser(middleware.RateLimitConfig{RequestLimit: 2, WindowLength: time.Minute})(okHandler())

	// Inject the principal the way Auth would.
	withUser := func(userID string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithPrincipal(r.Context(), &auth.Principal{UserID: userID})
			limiter.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	owner := withUser("owner-1")
	assert.Equal(t, http.StatusOK, serveFrom(owner, "192.168.1.1:12345").Code)
	assert.Equal(t, http.StatusOK, serveFrom(owner, "192.168.1.2:12345").Code)

	// Same user from a third address is still limited.
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(owner, "192.168.1.3:12345").Code)

	// Another user sharing the first address is not.
	assert.Equal(t, http.StatusOK, serveFrom(withUser("owner-2"), "192.168.1.1:12345").Code)
}

func TestRateLimitByUser_FallsBackToIP(t *testing.T) {
	handler := middleware.RateLimitByUser(middleware.RateLimitConfig{RequestLimit: 2, WindowLength: time.Minute})(okHandler())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serveFrom(handler, "198.51.100.1:12345").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(handler, "198.51.100.1:12345").Code)
	assert.Equal(t, http.StatusOK, serveFrom(handler, "198.51.100.2:12345").Code)
}

func TestRateLimitExceededResponse_Format(t *testing.T) {
	handler := middleware.RequestID(
		middleware.RateLimitByIP(middleware.RateLimitConfig{RequestLimit: 1, WindowLength: time.Minute})(okHandler()),
	)

	assert.Equal(t, http.StatusOK, serveFrom(handler, "203.0.113.1:12345").Code)

	rec := serveFrom(handler, "203.0.113.1:12345")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	body := rec.Body.String()
	assert.Contains(t, body, "too-many-requests")
	assert.Contains(t, body, "/v1/stations")
}

func TestDefaultRateLimitConfigs(t *testing.T) {
	assert.Equal(t, 120, middleware.PublicRateLimit.RequestLimit)
	assert.Equal(t, 100, middleware.StandardRateLimit.RequestLimit)
	assert.Equal(t, 30, middleware.WriteRateLimit.RequestLimit)

	for _, cfg := range []middleware.RateLimitConfig{
		middleware.PublicRateLimit,
		middleware.StandardRateLimit,
		middleware.WriteRateLimit,
	} {
		assert.Equal(t, time.Minute, cfg.WindowLength)
	}
}

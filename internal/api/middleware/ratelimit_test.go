package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dietlyplans/dietly/internal/api/middleware"
	"github.com/dietlyplans/dietly/internal/auth"
)

func okLimited(cfg middleware.RateLimitConfig, byUser bool) http.Handler {
	mw := middleware.RateLimitByIP(cfg)
	if byUser {
		mw = middleware.RateLimitByUser(cfg)
	}
	return mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func sendAs(handler http.Handler, userID, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/plans", http.NoBody)
	req.RemoteAddr = addr
	if userID != "" {
		req = req.WithContext(middleware.WithIdentity(req.Context(), &auth.Identity{UserID: userID}))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP(t *testing.T) {
	handler := okLimited(middleware.RateLimitConfig{Name: "webhook", RequestLimit: 3, WindowLength: time.Minute}, false)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, sendAs(handler, "", "10.0.0.1:12345").Code, "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, sendAs(handler, "", "10.0.0.1:12345").Code)
	assert.Equal(t, http.StatusOK, sendAs(handler, "", "10.0.0.2:12345").Code, "other addresses keep their own budget")
}

func TestRateLimitByUser_KeysOnIdentity(t *testing.T) {
	handler := okLimited(middleware.RateLimitConfig{Name: "plan generation", RequestLimit: 1, WindowLength: time.Minute}, true)

	assert.Equal(t, http.StatusOK, sendAs(handler, "user-a", "10.0.0.1:1000").Code)
	// same user from another address shares the budget
	assert.Equal(t, http.StatusTooManyRequests, sendAs(handler, "user-a", "10.0.0.2:1000").Code)
	// another user on the first address has its own
	assert.Equal(t, http.StatusOK, sendAs(handler, "user-b", "10.0.0.1:1000").Code)
}

func TestRateLimitByUser_FallsBackToIP(t *testing.T) {
	handler := okLimited(middleware.RateLimitConfig{Name: "standard", RequestLimit: 2, WindowLength: time.Minute}, true)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, sendAs(handler, "", "192.168.1.1:12345").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, sendAs(handler, "", "192.168.1.1:12345").Code)
	assert.Equal(t, http.StatusOK, sendAs(handler, "", "192.168.1.2:12345").Code)
}

func TestRateLimit_SharedLimiterCoversEveryRoute(t *testing.T) {
	limiter := middleware.RateLimitByUser(middleware.RateLimitConfig{Name: "plan generation", RequestLimit: 2, WindowLength: time.Minute})
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	sync, queued := limiter(ok), limiter(ok)

	assert.Equal(t, http.StatusOK, sendAs(sync, "user-a", "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, sendAs(queued, "user-a", "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, sendAs(sync, "user-a", "10.0.0.1:1").Code)
}

func TestRateLimitExceeded_Problem(t *testing.T) {
	handler := middleware.RequestID(okLimited(middleware.RateLimitConfig{
		Name:         "plan generation",
		RequestLimit: 1,
		WindowLength: 90 * time.Second,
	}, true))

	assert.Equal(t, http.StatusOK, sendAs(handler, "user-a", "203.0.113.1:1").Code)
	rec := sendAs(handler, "user-a", "203.0.113.1:1")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))

	body := rec.Body.String()
	assert.Contains(t, body, "too-many-requests")
	assert.Contains(t, body, "plan generation allows 1 requests per 1m30s")
	assert.Contains(t, body, "/v1/plans")
}

func TestDefaultRateLimitConfigs(t *testing.T) {
	assert.Equal(t, 5, middleware.GenerationRateLimit.RequestLimit)
	assert.Equal(t, 60, middleware.WebhookRateLimit.RequestLimit)
	assert.Equal(t, 100, middleware.StandardRateLimit.RequestLimit)

	for _, cfg := range []middleware.RateLimitConfig{middleware.GenerationRateLimit, middleware.WebhookRateLimit, middleware.StandardRateLimit} {
		assert.Equal(t, time.Minute, cfg.WindowLength)
		assert.NotEmpty(t, cfg.Name)
	}
}

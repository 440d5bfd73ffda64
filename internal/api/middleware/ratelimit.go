package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/dietlyplans/dietly/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// Name labels the budget in problem responses and separates its counters
	// from other budgets keyed on the same caller.
	Name         string
	RequestLimit int
	WindowLength time.Duration
}

// Default rate limit configurations.
var (
	// GenerationRateLimit applies to plan generation, sync or queued. Each call
	// may hold several drafting requests open for a minute or more.
	GenerationRateLimit = RateLimitConfig{
		Name:         "plan generation",
		RequestLimit: 5,
		WindowLength: time.Minute,
	}

	// WebhookRateLimit applies to the payment provider's webhook deliveries.
	WebhookRateLimit = RateLimitConfig{
		Name:         "webhook",
		RequestLimit: 60,
		WindowLength: time.Minute,
	}

	// StandardRateLimit applies to reads, checkout and admin calls.
	StandardRateLimit = RateLimitConfig{
		Name:         "standard",
		RequestLimit: 100,
		WindowLength: time.Minute,
	}
)

// RateLimitByIP limits by client address, as resolved by chi's RealIP.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return limit(cfg, httprate.KeyByRealIP)
}

// RateLimitByUser limits by authenticated user, falling back to client
// address when the request carries no identity.
func RateLimitByUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return limit(cfg, keyByUserOrIP)
}

func limit(cfg RateLimitConfig, key httprate.KeyFunc) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(key, func(*http.Request) (string, error) { return cfg.Name, nil }),
		httprate.WithLimitHandler(exceededHandler(cfg)),
	)
}

func keyByUserOrIP(r *http.Request) (string, error) {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID, nil
	}
	return httprate.KeyByRealIP(r)
}

// exceededHandler writes a 429 problem with Retry-After set to the window.
// httprate does not expose the reset time, so the full window is the safe upper bound.
func exceededHandler(cfg RateLimitConfig) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(math.Ceil(cfg.WindowLength.Seconds())))
	detail := fmt.Sprintf("Rate limit exceeded: %s allows %d requests per %s. Please try again later.",
		cfg.Name, cfg.RequestLimit, cfg.WindowLength)

	return func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewTooManyRequests(GetRequestID(r.Context()), detail)
		problem.Instance = r.URL.Path

		w.Header().Set("Retry-After", retryAfter)
		problem.Write(w)
	}
}

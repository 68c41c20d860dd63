package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/dailycast/dailycast/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// Requests per window
	RequestLimit int
	// Window duration
	WindowLength time.Duration
}

// OpsRateLimit applies to the ops endpoints (60 req/min). The history
// endpoint reads the document store once per requested day; a dashboard
// polling loop should never turn that into a burst.
var OpsRateLimit = RateLimitConfig{
	RequestLimit: 60,
	WindowLength: time.Minute,
}

// RateLimitByIP creates a rate limiter middleware using client IP address.
// Uses X-Forwarded-For header if present (extracted by chi's RealIP middleware).
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(rateLimitExceededHandler),
	)
}

func rateLimitExceededHandler(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	problem := models.NewTooManyRequests(requestID, "rate limit exceeded, retry later")
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// SPDX-License-Identifier: MIT

package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ManuGH/ffgate/internal/log"
	"github.com/ManuGH/ffgate/internal/metrics"
	"github.com/ManuGH/ffgate/internal/ratelimit"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	// RequestLimit is the maximum number of requests allowed in the window
	RequestLimit int
	// WindowSize is the time window for rate limiting
	WindowSize time.Duration
	// KeyFunc extracts the rate limit key from the request (e.g., IP address)
	// If nil, defaults to IP-based rate limiting
	KeyFunc func(r *http.Request) (string, error)
}

// RateLimit creates a sliding-window rate limiting middleware using httprate.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeRateLimited(w, r, int(cfg.WindowSize.Seconds()))
		}),
	)
}

// APIRateLimit limits each client to requestsPerMinute requests.
// A disabled or non-positive limit yields a pass-through middleware.
func APIRateLimit(enabled bool, requestsPerMinute int) func(http.Handler) http.Handler {
	if !enabled || requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return RateLimit(RateLimitConfig{
		RequestLimit: requestsPerMinute,
		WindowSize:   time.Minute,
	})
}

// JobRateLimit admits requests of the given class through the token
// bucket limiter. It runs before the upload is read, so a throttled
// client never costs a disk write or a process.
func JobRateLimit(l *ratelimit.Limiter, class string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(ratelimit.GetClientIP(r), class) {
				metrics.IncJobRejected("rate_limited")
				writeRateLimited(w, r, 1)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimited(w http.ResponseWriter, r *http.Request, retryAfter int) {
	if retryAfter < 1 {
		retryAfter = 1
	}
	logger := log.WithComponentFromContext(r.Context(), "ratelimit")
	logger.Warn().
		Str(log.FieldEvent, "ratelimit.exceeded").
		Str(log.FieldRemoteAddr, r.RemoteAddr).
		Msg("request rate limited")

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":      "rate_limit_exceeded",
		"details":    "Too many requests. Please try again later.",
		"request_id": log.RequestIDFromContext(r.Context()),
	})
}

// SPDX-License-Identifier: MIT

// Package ratelimit throttles process-spawning requests with token buckets.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// Job classes. Probes are cheap compared to transcodes.
const (
	ClassTranscode = "transcode"
	ClassProbe     = "probe"
)

var (
	rateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ffgate",
			Name:      "ratelimit_exceeded_total",
			Help:      "Total job rate limit rejections",
		},
		[]string{"limit_type", "class"},
	)
)

// Config holds rate limiting configuration
type Config struct {
	// Global limits across all clients
	GlobalRate  rate.Limit
	GlobalBurst int

	// Per-IP limits
	PerIPRate  rate.Limit
	PerIPBurst int

	// Per-class limits (transcode, probe)
	ClassRates map[string]rate.Limit
	ClassBurst map[string]int

	// Per-IP limiters idle for this long are dropped
	IdleTTL time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		GlobalRate:  20,
		GlobalBurst: 40,

		PerIPRate:  2,
		PerIPBurst: 4,

		ClassRates: map[string]rate.Limit{
			ClassTranscode: 10,
			ClassProbe:     20,
		},
		ClassBurst: map[string]int{
			ClassTranscode: 20,
			ClassProbe:     40,
		},

		IdleTTL: 10 * time.Minute,
	}
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter manages rate limiting for job-spawning routes
type Limiter struct {
	config Config

	global   *rate.Limiter
	perClass map[string]*rate.Limiter

	mu          sync.Mutex
	perIP       map[string]*ipEntry
	lastCleanup time.Time
	now         func() time.Time
}

// New creates a new rate limiter with the given config
func New(config Config) *Limiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = DefaultConfig().IdleTTL
	}
	l := &Limiter{
		config:      config,
		global:      rate.NewLimiter(config.GlobalRate, config.GlobalBurst),
		perClass:    make(map[string]*rate.Limiter),
		perIP:       make(map[string]*ipEntry),
		lastCleanup: time.Now(),
		now:         time.Now,
	}

	for class, classRate := range config.ClassRates {
		l.perClass[class] = rate.NewLimiter(classRate, config.ClassBurst[class])
	}

	return l
}

// Allow reports whether a job of the given class from clientIP may start.
// The per-IP bucket is checked first so one noisy client cannot drain the
// global bucket for everyone else.
func (l *Limiter) Allow(clientIP, class string) bool {
	if !l.ipLimiter(clientIP).Allow() {
		rateLimitExceeded.WithLabelValues("per_ip", class).Inc()
		return false
	}

	if classLimiter, ok := l.perClass[class]; ok && !classLimiter.Allow() {
		rateLimitExceeded.WithLabelValues("per_class", class).Inc()
		return false
	}

	if !l.global.Allow() {
		rateLimitExceeded.WithLabelValues("global", class).Inc()
		return false
	}

	return true
}

// ipLimiter returns the rate limiter for a specific IP
func (l *Limiter) ipLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanupLocked(now)

	e, ok := l.perIP[ip]
	if !ok {
		e = &ipEntry{limiter: rate.NewLimiter(l.config.PerIPRate, l.config.PerIPBurst)}
		l.perIP[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

// cleanupLocked drops idle per-IP limiters at most once per IdleTTL.
func (l *Limiter) cleanupLocked(now time.Time) {
	if now.Sub(l.lastCleanup) < l.config.IdleTTL {
		return
	}
	for ip, e := range l.perIP {
		if now.Sub(e.lastSeen) >= l.config.IdleTTL {
			delete(l.perIP, ip)
		}
	}
	l.lastCleanup = now
}

// trackedIPs returns the number of per-IP limiters held.
func (l *Limiter) trackedIPs() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.perIP)
}

// GetClientIP extracts the real client IP from the request
func GetClientIP(r *http.Request) string {
	// X-Forwarded-For can contain "client, proxy1, proxy2"; take the client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the per-identity token-bucket limiter. Identities are
// the X-User-ID of agents and end users, falling back to the client IP.
//
// Reads that a single page load fans out into (public objects, health,
// metrics) and the opening of event streams are exempt: a client reconnecting
// its streams must not starve its own message sends. Idempotent replays are
// exempt as well (see IdempotencyValidator).
//
// The limiter is process-local; with several instances each enforces its
// own budget.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys by the "userID" context value, then the X-User-ID
// header, then the client IP. Keys are namespaced ("user:", "ip:").
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if s, ok := c.Value("userID").(string); ok && s != "" {
			return "user:" + s
		}
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return "user:" + h
		}
		return "ip:" + c.ClientIP()
	}
}

var rateLimited = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_rate_limited_total",
		Help: "Requests rejected by the rate limiter, by identity kind.",
	},
	[]string{"kind"},
)

func init() { prometheus.MustRegister(rateLimited) }

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one token bucket per identity. Idle buckets are swept
// every sweepEvery lookups. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	lookups  uint64
}

const sweepEvery = 5000

// NewRateLimiter builds a limiter refilling rps tokens per second with the
// given burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// getVisitor returns the bucket for key. The sweep runs before the lookup so
// a stale bucket is dropped even when it is the one being asked for.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator marked the request as a
// replay.
func IsRateBypass(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyRateBypass).(bool)
	return b
}

// isRateExempt reports requests that never consume tokens.
func isRateExempt(c *gin.Context) bool {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		return false
	}
	p := c.Request.URL.Path
	return p == "/health" || p == "/metrics" ||
		strings.HasPrefix(p, DefaultObjectPrefix) ||
		IsStreamPath(p)
}

// Handler enforces the limits. Rejections are 429 with the standard error
// envelope and a Retry-After computed from the bucket's refill time.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) || isRateExempt(c) {
			c.Next()
			return
		}

		key := rl.keyFn(c)
		res := rl.getVisitor(key).Reserve()
		delay := res.Delay()
		if res.OK() && delay == 0 {
			c.Next()
			return
		}
		res.Cancel()

		kind, _, _ := strings.Cut(key, ":")
		rateLimited.WithLabelValues(kind).Inc()

		c.Header("Retry-After", retryAfter(delay))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}

// retryAfter renders d as whole seconds, at least 1. A request that can
// never be served (zero rate) is told to come back in a minute.
func retryAfter(d time.Duration) string {
	switch {
	case d == rate.InfDuration:
		return "60"
	case d <= time.Second:
		return "1"
	}
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}

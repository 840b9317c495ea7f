// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a process-local token-bucket rate limiter keyed by
// client IP. Every search that misses all cache tiers costs an external
// provider call, so the limiter sits in front of the search endpoints as
// spend protection rather than as an authorization mechanism.
//
// The limiter is in-memory and per-process; horizontally scaled deployments
// wanting a global limit should move to a Redis-backed limiter instead.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// bucket pairs a token bucket with its last-use timestamp so idle entries
// can be evicted.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces per-client token-bucket limits. Buckets are created on
// demand and evicted opportunistically after sitting idle for the TTL, so the
// map stays bounded under churny client populations. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups uint64

	idleTTL time.Duration
}

// NewRateLimiter constructs a limiter replenishing rps tokens per second with
// the given burst capacity. A burst <= 0 is coerced to 1.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*bucket),
		idleTTL: 10 * time.Minute,
	}
}

// take returns the bucket for key, creating it when absent. Idle entries are
// swept every ~5000 lookups; the sweep runs before the fetch so a stale
// bucket for the requesting client is evicted rather than refreshed.
func (rl *RateLimiter) take(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= 5000 {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

// Handler returns the Gin middleware. An over-limit request receives a 429
// with a Retry-After hint and the standard JSON error envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.take("ip:" + c.ClientIP()).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}

// Package middleware provides HTTP middleware for the backlog tracker.
package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// maxBuckets is the maximum number of tracked IPs to prevent memory exhaustion.
const maxBuckets = 100_000

// staleAfter is how long an idle bucket is kept before eviction.
const staleAfter = 10 * time.Minute

// RateLimiter implements a per-IP token bucket.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   float64
	now     func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter creates a RateLimiter refilling ratePerSec tokens per second
// up to burst. A background goroutine evicts idle buckets until ctx is done.
func NewRateLimiter(ctx context.Context, ratePerSec, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    float64(ratePerSec),
		burst:   float64(burst),
		now:     time.Now,
	}
	go rl.evictLoop(ctx)

	return rl
}

func (rl *RateLimiter) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(staleAfter / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evict()
		}
	}
}

func (rl *RateLimiter) evict() {
	cutoff := rl.now().Add(-staleAfter)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, b := range rl.buckets {
		if b.seen.Before(cutoff) {
			delete(rl.buckets, ip)
		}
	}
}

// take consumes one token for ip. When refused it reports how long until the
// next token is available.
func (rl *RateLimiter) take(ip string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok {
		if len(rl.buckets) >= maxBuckets {
			return false, time.Second
		}

		b = &bucket{tokens: rl.burst, seen: now}
		rl.buckets[ip] = b
	}

	b.tokens = math.Min(rl.burst, b.tokens+now.Sub(b.seen).Seconds()*rl.rate)
	b.seen = now

	if b.tokens >= 1 {
		b.tokens--

		return true, 0
	}

	if rl.rate <= 0 {
		return false, time.Minute
	}

	wait := time.Duration((1 - b.tokens) / rl.rate * float64(time.Second))

	return false, wait
}

// Handler returns Gin middleware that applies rate limiting per client IP.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// c.ClientIP() ignores forwarding headers because the router trusts no proxies.
		allowed, wait := rl.take(c.ClientIP())
		if !allowed {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}

			c.Header("Retry-After", strconv.Itoa(secs))
			respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")

			return
		}

		c.Next()
	}
}

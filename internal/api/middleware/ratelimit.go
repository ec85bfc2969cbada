package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"parking-core/internal/apperr"
	"parking-core/internal/response"
)

// ipRateLimiter tracks a per-IP token bucket, used to throttle the
// unauthenticated login and membership-validation surfaces named in §6.2.
// Full rate-limiting policy is out of scope; this is the defensive shape
// the pack uses for unauthenticated endpoints, not a configurable engine.
type ipRateLimiter struct {
	mu  sync.RWMutex
	ips map[string]*rate.Limiter
	r   rate.Limit
	b   int
}

func newIPRateLimiter(r rate.Limit, b int) *ipRateLimiter {
	return &ipRateLimiter{ips: make(map[string]*rate.Limiter), r: r, b: b}
}

func (i *ipRateLimiter) get(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.ips[ip]
	i.mu.RUnlock()
	if exists {
		return limiter
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	limiter = rate.NewLimiter(i.r, i.b)
	i.ips[ip] = limiter
	return limiter
}

// RateLimit throttles requests per client IP. r is the sustained rate
// (events/sec), b the burst size.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	limiter := newIPRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.get(c.ClientIP()).Allow() {
			response.Fail(c, apperr.New(apperr.RateLimited, "too many requests, slow down"))
			c.Abort()
			return
		}
		c.Next()
	}
}

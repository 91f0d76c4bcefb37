package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ipRateLimiter stores a token bucket per client IP.
type ipRateLimiter struct {
	mu  sync.RWMutex
	ips map[string]*rate.Limiter
	r   rate.Limit
	b   int
}

func newIPRateLimiter(r rate.Limit, b int) *ipRateLimiter {
	return &ipRateLimiter{
		ips: make(map[string]*rate.Limiter),
		r:   r,
		b:   b,
	}
}

func (i *ipRateLimiter) limiter(ip string) *rate.Limiter {
	i.mu.RLock()
	lim, ok := i.ips[ip]
	i.mu.RUnlock()
	if ok {
		return lim
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if lim, ok := i.ips[ip]; ok {
		return lim
	}
	lim = rate.NewLimiter(i.r, i.b)
	i.ips[ip] = lim
	return lim
}

// RateLimiter is a middleware for per-IP rate limiting.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiter := newIPRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.limiter(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}

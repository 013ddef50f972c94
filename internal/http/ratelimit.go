package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const rateLimitKeys = 10000

// RateLimitConfig allows Requests per Window for each client IP, with Burst on top.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

type rateLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	perSecond := float64(cfg.Requests) / cfg.Window.Seconds()
	// an idle limiter refills completely within this time, so dropping it loses nothing
	refill := time.Duration(float64(cfg.Burst) / perSecond * float64(time.Second))
	return &rateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](rateLimitKeys, nil, refill+time.Second),
		limit:    rate.Limit(perSecond),
		burst:    cfg.Burst,
	}
}

func (rl *rateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
	}
	// re-adding refreshes the expiry
	rl.limiters.Add(key, limiter)
	return limiter
}

// RateLimit rejects clients that exceed cfg with 429 and a Retry-After header.
func RateLimit(cfg RateLimitConfig, logger *logrus.Logger) gin.HandlerFunc {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Requests
	}
	rl := newRateLimiter(cfg)

	return func(c *gin.Context) {
		key := c.ClientIP()
		limiter := rl.get(key)
		if limiter.Allow() {
			c.Next()
			return
		}

		reservation := limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()
		retryAfter := max(int(delay.Seconds()), 1)

		logger.WithFields(logrus.Fields{
			"client_ip":   key,
			"path":        c.Request.URL.Path,
			"retry_after": retryAfter,
		}).Warn("rate limit exceeded")

		c.Header("Retry-After", strconv.Itoa(retryAfter))
		abortWithError(c, http.StatusTooManyRequests, "too many requests")
	}
}

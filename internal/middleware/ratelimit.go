package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/apierror"
	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/gin-gonic/gin"
)

// RateLimiter counts requests per key in fixed windows. Idle keys are
// swept every two windows.
type RateLimiter struct {
	name   string
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window

	done     chan struct{}
	stopOnce sync.Once
}

type window struct {
	start    time.Time
	count    int
	lastSeen time.Time
}

// NewRateLimiter allows limit requests per key in each window and starts
// the sweeper; call Stop on shutdown.
func NewRateLimiter(limit int, win time.Duration, name string) *RateLimiter {
	rl := &RateLimiter{
		name:    name,
		limit:   limit,
		window:  win,
		now:     time.Now,
		windows: make(map[string]*window),
		done:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(2 * rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			if n := rl.evictIdle(); n > 0 {
				logger.Debug("rate limiter swept idle keys",
					logger.String("limiter", rl.name),
					logger.Int("evicted", n),
				)
			}
		}
	}
}

func (rl *RateLimiter) evictIdle() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-2 * rl.window)
	n := 0
	for key, w := range rl.windows {
		if w.lastSeen.Before(cutoff) {
			delete(rl.windows, key)
			n++
		}
	}
	return n
}

// take records one request for key. It returns the count inside the
// current window and how long until that window ends.
func (rl *RateLimiter) take(key string) (int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.window {
		w = &window{start: now}
		rl.windows[key] = w
	}
	w.count++
	w.lastSeen = now
	return w.count, rl.window - now.Sub(w.start)
}

// RateLimit keys by user when Auth ran before it, otherwise by client IP.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID := UserID(c); userID != "" {
			key = "user:" + userID
		}

		count, resetIn := limiter.take(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		if count > limiter.limit {
			retryAfter := int(resetIn/time.Second) + 1
			logger.Ctx(c.Request.Context()).Warn("rate limit exceeded",
				logger.String("limiter", limiter.name),
				logger.String("client_key", key),
				logger.Int("retry_after", retryAfter),
			)
			c.Header("X-RateLimit-Remaining", "0")
			apierror.AbortWithProblem(c, apierror.NewRateLimitError(apierror.GetRequestID(c), retryAfter))
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.limit-count))
		c.Next()
	}
}

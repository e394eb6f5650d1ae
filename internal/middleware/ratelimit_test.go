package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// newTestLimiter skips the sweeper so tests drive the clock alone
func newTestLimiter(limit int, win time.Duration) (*RateLimiter, *stepClock) {
	clock := &stepClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	return &RateLimiter{
		name:    "test",
		limit:   limit,
		window:  win,
		now:     clock.now,
		windows: make(map[string]*window),
		done:    make(chan struct{}),
	}, clock
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Minute)

	for i := 1; i <= 3; i++ {
		if got, _ := rl.take("user:alice"); got != i {
			t.Fatalf("take %d count = %d", i, got)
		}
	}

	clock.advance(45 * time.Second)
	if _, resetIn := rl.take("user:alice"); resetIn != 15*time.Second {
		t.Errorf("resetIn = %v, want 15s", resetIn)
	}

	clock.advance(15 * time.Second)
	if got, resetIn := rl.take("user:alice"); got != 1 || resetIn != time.Minute {
		t.Errorf("after window: count=%d resetIn=%v, want 1, 1m", got, resetIn)
	}
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl, clock := newTestLimiter(5, time.Minute)
	rl.take("ip:10.0.0.1")
	clock.advance(90 * time.Second)
	rl.take("ip:10.0.0.2")
	clock.advance(45 * time.Second)

	if n := rl.evictIdle(); n != 1 {
		t.Errorf("evicted %d, want 1", n)
	}
	if _, ok := rl.windows["ip:10.0.0.2"]; !ok {
		t.Error("recent key evicted")
	}
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := NewRateLimiter(1000, 20*time.Millisecond, "race")
	defer rl.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				rl.take("user:" + strconv.Itoa(id%4))
				if j%10 == 0 {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestRateLimit_PerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, _ := newTestLimiter(2, time.Minute)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if u := c.GetHeader("X-Test-User"); u != "" {
			c.Set(UserIDKey, u)
		}
		c.Next()
	}, RateLimit(limiter))
	r.POST("/api/v1/logs", func(c *gin.Context) { c.Status(http.StatusCreated) })

	send := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/logs", nil)
		req.Header.Set("X-Test-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := send("alice"); w.Code != http.StatusCreated {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}
	w := send("alice")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "61" || w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("headers = %v", w.Header())
	}
	if w := send("bob"); w.Code != http.StatusCreated {
		t.Errorf("bob status = %d, want 201", w.Code)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newRateLimitedRouter(limiter ClientLimiter) *gin.Engine {
	r := gin.New()
	r.GET("/", RateLimitMiddleware(limiter), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doRequest(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":12345"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         5,
		CleanupInterval:   time.Minute,
	})
	t.Cleanup(limiter.Stop)
	r := newRateLimitedRouter(limiter)

	for i := 0; i < 5; i++ {
		w := doRequest(r, "10.0.0.1")
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}
}

func TestRateLimiter_BlocksBeyondBurst(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         3,
		CleanupInterval:   time.Minute,
	})
	t.Cleanup(limiter.Stop)
	r := newRateLimitedRouter(limiter)

	for i := 0; i < 3; i++ {
		doRequest(r, "10.0.0.2")
	}
	w := doRequest(r, "10.0.0.2")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", w.Header().Get("Retry-After"))
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})
	t.Cleanup(limiter.Stop)
	r := newRateLimitedRouter(limiter)

	if w := doRequest(r, "10.0.0.3"); w.Code != http.StatusOK {
		t.Fatalf("first client: status = %d, want 200", w.Code)
	}
	if w := doRequest(r, "10.0.0.4"); w.Code != http.StatusOK {
		t.Errorf("second client should not share the first client's bucket, status = %d", w.Code)
	}
}

func TestRateLimiter_TokensRefillOverTime(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 6000, // 100 tokens per second for a fast test
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})
	t.Cleanup(limiter.Stop)

	if ok, _ := limiter.Allow(nil, "k"); !ok {
		t.Fatal("first request should be allowed")
	}
	if ok, _ := limiter.Allow(nil, "k"); ok {
		t.Fatal("second immediate request should be blocked")
	}

	time.Sleep(50 * time.Millisecond)
	if ok, _ := limiter.Allow(nil, "k"); !ok {
		t.Error("request after refill interval should be allowed")
	}
}

func TestRateLimitMiddleware_SetsRateLimitHeaders(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         10,
		CleanupInterval:   time.Minute,
	})
	t.Cleanup(limiter.Stop)
	r := newRateLimitedRouter(limiter)

	w := doRequest(r, "10.0.0.5")
	if w.Header().Get("X-RateLimit-Limit") != "60" {
		t.Errorf("X-RateLimit-Limit = %q, want 60", w.Header().Get("X-RateLimit-Limit"))
	}
	if w.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("X-RateLimit-Remaining header missing")
	}
}

func TestGetRateLimitKey_PrefersUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.0.0.6:1"

	if key := getRateLimitKey(c); key != "ip:10.0.0.6" {
		t.Errorf("anonymous key = %q, want ip:10.0.0.6", key)
	}

	c.Set(UserIDContextKey, "user-1")
	if key := getRateLimitKey(c); key != "user:user-1" {
		t.Errorf("authenticated key = %q, want user:user-1", key)
	}
}

package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestLimiterSet_allowAndExhaust(t *testing.T) {
	s := newLimiterSet(1, 2, time.Minute)

	if !s.allow("10.0.0.1") || !s.allow("10.0.0.1") {
		t.Fatal("burst allowance not honored")
	}
	if s.allow("10.0.0.1") {
		t.Error("third immediate request should exceed the burst")
	}
	// Buckets are per key: another client is unaffected.
	if !s.allow("10.0.0.2") {
		t.Error("fresh client denied")
	}
}

func TestLimiterSet_sweep(t *testing.T) {
	s := newLimiterSet(1, 1, 10*time.Millisecond)
	s.allow("10.0.0.1")
	s.allow("10.0.0.2")

	time.Sleep(20 * time.Millisecond)
	s.allow("10.0.0.3")

	if n := s.sweep(); n != 2 {
		t.Errorf("sweep: got %d, want 2", n)
	}
	if s.len() != 1 {
		t.Errorf("len after sweep: got %d", s.len())
	}
}

func TestRateLimiter_429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RateLimiter(1, 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request: %d", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", second.Code)
	}
	if second.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After: %q", second.Header().Get("Retry-After"))
	}
}

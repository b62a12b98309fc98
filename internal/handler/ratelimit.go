package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitor is one client's token bucket plus its last activity, used to age
// idle entries out of the set.
type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// limiterSet hands out per-key token buckets and ages out idle ones. Keys
// are client IPs on the public resolve path.
type limiterSet struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
}

func newLimiterSet(rps, burst int, idleTTL time.Duration) *limiterSet {
	return &limiterSet{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(rps),
		burst:    burst,
		idleTTL:  idleTTL,
	}
}

// allow consumes one token from key's bucket, creating the bucket on first
// sight.
func (s *limiterSet) allow(key string) bool {
	s.mu.Lock()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(s.rate, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = time.Now()
	s.mu.Unlock()

	return v.bucket.Allow()
}

// sweep drops visitors idle longer than idleTTL and reports how many were
// removed.
func (s *limiterSet) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-s.idleTTL)
	n := 0
	for key, v := range s.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(s.visitors, key)
			n++
		}
	}
	return n
}

func (s *limiterSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

// RateLimiter returns a middleware enforcing per-IP token-bucket limits on
// the public resolve endpoint. rps is the steady-state rate, burst the
// allowance for short spikes. A background sweep drops clients idle for ten
// minutes.
func RateLimiter(rps, burst int) gin.HandlerFunc {
	set := newLimiterSet(rps, burst, 10*time.Minute)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			set.sweep()
		}
	}()

	return func(c *gin.Context) {
		if !set.allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

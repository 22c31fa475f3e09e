package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/skylark/spectra-backend/internal/config"
	"github.com/skylark/spectra-backend/pkg/response"
)

// Stale buckets are swept opportunistically on the request path.
const (
	sweepEvery = 3 * time.Minute
	bucketTTL  = 5 * time.Minute
)

// Throttle enforces a per-client-IP token bucket on a route group.
// The webhook and voice groups each carry their own Throttle so a
// noisy provider redelivery burst cannot starve the interview room.
type Throttle struct {
	quota config.Quota

	mu        sync.Mutex
	buckets   map[string]*clientBucket
	lastSweep time.Time
}

type clientBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

func NewThrottle(q config.Quota) *Throttle {
	return &Throttle{
		quota:     q,
		buckets:   make(map[string]*clientBucket),
		lastSweep: time.Now(),
	}
}

func (t *Throttle) allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if now.Sub(t.lastSweep) > sweepEvery {
		for addr, b := range t.buckets {
			if now.Sub(b.seen) > bucketTTL {
				delete(t.buckets, addr)
			}
		}
		t.lastSweep = now
	}

	b, ok := t.buckets[ip]
	if !ok {
		b = &clientBucket{
			limiter: rate.NewLimiter(rate.Limit(t.quota.RPS), t.quota.Burst),
		}
		t.buckets[ip] = b
	}
	b.seen = now
	return b.limiter.Allow()
}

// Handler returns the gin middleware enforcing this throttle.
func (t *Throttle) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !t.allow(c.ClientIP()) {
			response.TooManyRequests(c, "too many requests, please try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimit builds a standalone throttle for a single route group.
func RateLimit(q config.Quota) gin.HandlerFunc {
	return NewThrottle(q).Handler()
}

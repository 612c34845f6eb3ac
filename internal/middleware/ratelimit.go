package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RetryAfterHeader tells a limited client how long to back off.
const RetryAfterHeader = "Retry-After"

// idleLimiterTTL is how long an unused per-client limiter is kept.
const idleLimiterTTL = 10 * time.Minute

type clientLimiter struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP with a token bucket.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
	lastSwept time.Time
}

// NewRateLimiter allows rps requests per second per client with the given
// burst. A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   limit,
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether key may make a request now and, if not, how long
// it should wait.
func (r *RateLimiter) Allow(key string) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	cl, ok := r.clients[key]
	if !ok {
		cl = &clientLimiter{bucket: rate.NewLimiter(r.limit, r.burst)}
		r.clients[key] = cl
	}
	cl.lastSeen = now

	res := cl.bucket.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Clients returns the number of tracked clients.
func (r *RateLimiter) Clients() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// sweep drops idle limiters, at most once per TTL. Caller holds r.mu.
func (r *RateLimiter) sweep(now time.Time) {
	if now.Sub(r.lastSwept) < idleLimiterTTL {
		return
	}
	r.lastSwept = now
	for key, cl := range r.clients {
		if now.Sub(cl.lastSeen) > idleLimiterTTL {
			delete(r.clients, key)
		}
	}
}

// RateLimit rejects requests over the client's budget. onLimited writes the
// rejection; when nil a bare 429 is sent.
func RateLimit(limiter *RateLimiter, onLimited gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := limiter.Allow(c.ClientIP())
		if ok {
			c.Next()
			return
		}

		seconds := int(math.Ceil(wait.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header(RetryAfterHeader, strconv.Itoa(seconds))

		if onLimited != nil {
			onLimited(c)
		}
		if !c.IsAborted() {
			c.AbortWithStatus(http.StatusTooManyRequests)
		}
	}
}

package limiter

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const defaultIdleTTL = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
}

// NewIPRateLimiter allows perMinute requests per minute per IP, with bursts
// of up to a tenth of that.
func NewIPRateLimiter(perMinute int, ttl time.Duration) *IPRateLimiter {
	if perMinute <= 0 {
		return nil
	}
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = defaultIdleTTL
	}

	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		ttl:      ttl,
	}
}

func (l *IPRateLimiter) Allow(ip string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		l.cleanupLocked(now)
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

func (l *IPRateLimiter) cleanupLocked(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.visitors, ip)
		}
	}
}

// Limit returns gin middleware answering 429 once a client exceeds perMinute.
func Limit(perMinute int, ttl time.Duration) gin.HandlerFunc {
	l := NewIPRateLimiter(perMinute, ttl)
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"errorCode":    "RATE_LIMITED",
				"errorMessage": "Too many requests, please try again later.",
			})
			return
		}

		c.Next()
	}
}

package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu  sync.Mutex
	ips map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows requests per interval seconds for each IP.
func NewRateLimiter(requests int, interval int) *RateLimiter {
	return newRateLimiter(rate.Every(time.Duration(interval)*time.Second/time.Duration(requests)), requests)
}

func newRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		limit: limit,
		burst: burst,
		ttl:   10 * time.Minute,
		ips:   make(map[string]*visitor),
	}
}

// NewStrictRateLimiter lebih ketat untuk login dan entry terminal: 5 request per menit per IP
func NewStrictRateLimiter() gin.HandlerFunc {
	return newRateLimiter(rate.Every(time.Minute/5), 5).RateLimit()
}

func (rl *RateLimiter) get(ip string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// bersihkan IP yang sudah lama tidak aktif
	for key, v := range rl.ips {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.ips, key)
		}
	}

	v, ok := rl.ips[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.ips[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.get(c.ClientIP(), time.Now()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":  false,
				"message": "Terlalu banyak percobaan, silakan tunggu beberapa saat",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// LocalRateLimit is the in-process token bucket used when Redis is not configured.
// Each key gets a bucket refilled at max per window with a burst of max.
// Buckets idle for longer than ten windows are dropped.
func LocalRateLimit(max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if max <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	l := &localLimiter{
		limit:   rate.Limit(float64(max) / window.Seconds()),
		burst:   max,
		idle:    10 * window,
		buckets: make(map[string]*bucket),
	}
	return func(c *gin.Context) {
		if allow != nil && allow(c) {
			c.Next()
			return
		}
		if strings.EqualFold(c.Request.Method, http.MethodOptions) {
			c.Next()
			return
		}

		lim := l.get(keyFn(c), time.Now())
		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		if !lim.Allow() {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			tooManyRequests(c)
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(lim.Tokens())))
		c.Next()
	}
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

type localLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idle    time.Duration
	buckets map[string]*bucket
	swept   time.Time
}

func (l *localLimiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > l.idle {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > l.idle {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim
}

// Limit picks the Redis limiter when rdb is set and the in-process one otherwise.
func Limit(rdb *redis.Client, max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if rdb != nil {
		return RateLimit(rdb, max, window, keyFn, allow)
	}
	return LocalRateLimit(max, window, keyFn, allow)
}

package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long an unused limiter is kept before it is swept.
const idleLimiterTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per key.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	lastGC   time.Time
}

// NewRateLimiter allows perMinute events per key with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		lastGC:   time.Now(),
	}
}

// Allow reports whether one more event for key fits in its bucket.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if now.Sub(r.lastGC) > idleLimiterTTL {
		for k, e := range r.limiters {
			if now.Sub(e.lastSeen) > idleLimiterTTL {
				delete(r.limiters, k)
			}
		}
		r.lastGC = now
	}

	entry, ok := r.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(c *fiber.Ctx) string

// ByIP charges requests to the client address.
func ByIP(c *fiber.Ctx) string { return "ip:" + c.IP() }

// ByBodyField charges requests to a JSON body field, falling back to the
// client address when the field is absent.
func ByBodyField(field string) KeyFunc {
	return func(c *fiber.Ctx) string {
		var body map[string]interface{}
		if err := c.BodyParser(&body); err == nil {
			if v, ok := body[field].(string); ok && v != "" {
				return field + ":" + v
			}
		}
		return ByIP(c)
	}
}

// ByParam charges requests to a route parameter.
func ByParam(name string) KeyFunc {
	return func(c *fiber.Ctx) string {
		return name + ":" + c.Params(name)
	}
}

// RateLimit rejects requests over the limit with 429.
func RateLimit(limiter *RateLimiter, key KeyFunc, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		k := key(c)
		if !limiter.Allow(k) {
			logger.Warn("rate limit exceeded", zap.String("key", k), zap.String("path", c.Path()))
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests. Try again later.")
		}
		return c.Next()
	}
}

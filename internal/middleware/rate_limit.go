package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// KeyFunc derives the client identity a rate limit is counted against.
type KeyFunc func(c *fiber.Ctx) string

// ByIP counts attempts per client address.
func ByIP(c *fiber.Ctx) string {
	return c.IP()
}

// ByUsernameOrIP counts login attempts per submitted username, falling back
// to the client address when the body carries none.
func ByUsernameOrIP(c *fiber.Ctx) string {
	var req struct {
		Name string `json:"name"`
	}
	_ = c.BodyParser(&req)
	if name := strings.TrimSpace(req.Name); name != "" {
		return name
	}
	return c.IP()
}

// RateLimit enforces a fixed-window attempt ceiling per derived key using
// Redis if available. Without Redis it is a no-op, and it fails open on cache
// errors so an unavailable cache never locks users out.
func RateLimit(cache *redis.Client, prefix string, max int, window time.Duration, key KeyFunc) fiber.Handler {
	if max <= 0 {
		max = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		cacheKey := "rl:" + prefix + ":" + key(c)
		cnt, err := cache.Incr(c.UserContext(), cacheKey).Result()
		if err == nil && cnt == 1 {
			cache.Expire(c.UserContext(), cacheKey, window)
		}
		if err != nil {
			return c.Next()
		}
		if cnt > int64(max) {
			return fiber.NewError(http.StatusTooManyRequests, "too many attempts, please try again later")
		}
		return c.Next()
	}
}

package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const dedupePrefix = "dedupe:v1:"

// Dedupe rejects a second identical request while the first is still in
// flight. A request is fingerprinted by (method, path, authenticated account,
// body); the marker is released as soon as the handler finishes, so this is a
// best-effort double-submission guard, not a durable idempotency key. Must
// run after SessionAuth. Fails open without Redis.
func Dedupe(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cache == nil || c.Method() == fiber.MethodGet {
			return c.Next()
		}

		accountNumber := ""
		if claims, ok := SessionFromCtx(c); ok {
			accountNumber = claims.AccountNumber
		}

		sum := sha256.New()
		sum.Write([]byte(c.Method()))
		sum.Write([]byte{0})
		sum.Write([]byte(c.Path()))
		sum.Write([]byte{0})
		sum.Write([]byte(accountNumber))
		sum.Write([]byte{0})
		sum.Write(c.Body())
		key := dedupePrefix + hex.EncodeToString(sum.Sum(nil))

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		acquired, err := cache.SetNX(ctx, key, "1", ttl).Result()
		if err != nil {
			logger.Warn("duplicate-request reservation failed", slog.Any("error", err))
			return c.Next()
		}
		if !acquired {
			return fiber.NewError(http.StatusTooManyRequests, "request already processing")
		}

		handlerErr := c.Next()

		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cleanupCancel()
		cache.Del(cleanupCtx, key) // best effort release

		return handlerErr
	}
}

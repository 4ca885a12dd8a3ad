package middleware

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	CorrelationIDHeader   = "X-Correlation-ID"
	IdempotentReplyHeader = "X-Idempotent-Replay"
)

type cachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// IdempotencyMiddleware replays the first successful response for a repeated
// X-Correlation-ID so a retried finish or record does not write twice.
// Keys are scoped per user, so it must run after VerifyToken.
func IdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPatch && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		correlationID := c.Get(CorrelationIDHeader)
		if correlationID == "" {
			return c.Next()
		}

		key := fmt.Sprintf("idempotency:%s:%s", GetUserID(c), correlationID)
		ctx := c.UserContext()

		cached, err := redisClient.Get(ctx, key).Bytes()
		if err == nil && len(cached) > 0 {
			var resp cachedResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				c.Set(IdempotentReplyHeader, "true")
				c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
				return c.Status(resp.Status).Send(resp.Body)
			}
		}

		if err := c.Next(); err != nil {
			return err
		}

		// Only successful responses are replayed; failures may be retried for real
		statusCode := c.Response().StatusCode()
		if statusCode >= 200 && statusCode < 300 {
			body := append([]byte(nil), c.Response().Body()...)
			data, err := json.Marshal(cachedResponse{Status: statusCode, Body: body})
			if err == nil {
				err = redisClient.Set(ctx, key, data, ttl).Err()
			}
			if err != nil {
				log.WithError(err).WithField("correlation_id", correlationID).Warn("failed to store idempotent response")
			}
		}

		return nil
	}
}

package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/fathima-sithara/files-service/internal/apperr"
	"github.com/fathima-sithara/files-service/internal/auth"
	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	tokenHeader = "X-Token"
	userLocal   = "user"
)

// RequireUser resolves X-Token and stores the user in the request locals.
func RequireUser(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.Resolve(c.Context(), c.Get(tokenHeader))
		if err != nil {
			return err
		}
		if u == nil {
			return apperr.Unauthorized()
		}
		c.Locals(userLocal, u)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(userLocal).(*models.User)
	return u
}

// RequestLogger logs every request with its outcome.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", latency),
		}
		if err != nil {
			logger.Error("HTTP Request Error", append(fields, zap.Error(err))...)
			return err
		}
		logger.Info("HTTP Request", fields...)
		return nil
	}
}

// ErrorHandler renders errors as {"error": message}. Infrastructure causes
// are logged and never sent to the client.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		status := statusFor(err)
		if status == fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		return c.Status(status).JSON(fiber.Map{"error": apperr.Message(err)})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrInvalidOperation):
		return fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrRateLimited):
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// RateLimiter counts requests per key in fixed Redis windows so the limit
// holds across every server instance.
type RateLimiter struct {
	Redis  *redis.Client
	Prefix string
	Limit  int
	Window time.Duration
}

// incrWindow increments the counter and (re)arms its expiry in one step, so a
// counter can never outlive its window.
var incrWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 or redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

func NewRateLimiter(r *redis.Client, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{Redis: r, Prefix: prefix, Limit: limit, Window: window}
}

func (r *RateLimiter) MiddlewareByKey(keyFunc func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if r.Limit <= 0 {
			return c.Next()
		}
		redisKey := fmt.Sprintf("%s:%s", r.Prefix, keyFunc(c))
		count, err := incrWindow.Run(c.Context(), r.Redis, []string{redisKey}, r.Window.Milliseconds()).Int64()
		if err != nil {
			return apperr.Infrastructure("rate limiter", err)
		}
		if count > int64(r.Limit) {
			return apperr.RateLimited()
		}
		return c.Next()
	}
}

func ByIP(c *fiber.Ctx) string { return c.IP() }

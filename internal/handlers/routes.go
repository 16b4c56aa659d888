package handlers

import (
	"time"

	"github.com/fathima-sithara/files-service/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type ServerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// BodyLimit caps upload size in bytes; zero keeps Fiber's default.
	BodyLimit int
}

// NewApp builds the Fiber application with middlewares and every route.
func NewApp(cfg ServerConfig, h *Handler, limiter *RateLimiter, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		BodyLimit:             cfg.BodyLimit,
		ErrorHandler:          ErrorHandler(logger),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(RequestLogger(logger))

	Setup(app, h, limiter)
	return app
}

func Setup(app *fiber.App, h *Handler, limiter *RateLimiter) {
	requireUser := RequireUser(h.auth)

	app.Get("/status", h.Status)
	app.Get("/stats", h.Stats)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Post("/users", h.CreateUser)
	app.Get("/users/me", requireUser, h.Me)

	connect := []fiber.Handler{h.Connect}
	if limiter != nil {
		connect = append([]fiber.Handler{limiter.MiddlewareByKey(ByIP)}, connect...)
	}
	app.Get("/connect", connect...)
	app.Get("/disconnect", h.Disconnect)

	app.Post("/files", requireUser, h.Upload)
	app.Get("/files", requireUser, h.Index)
	app.Get("/files/:id", requireUser, h.Show)
	app.Put("/files/:id/publish", requireUser, h.Publish)
	app.Put("/files/:id/unpublish", requireUser, h.Unpublish)
	app.Get("/files/:id/data", h.Data)
}

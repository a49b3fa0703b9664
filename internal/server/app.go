package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const headerRequestID = "X-Request-ID"

// NewApp builds the fiber application with the shop's error handler and
// request logging. templates may be empty when no HTML pages are served.
func NewApp(templates, serverHeader string, logger *zap.Logger) *fiber.App {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := fiber.Config{
		ServerHeader: serverHeader,
		ErrorHandler: ErrorHandler(logger),
	}
	if templates != "" {
		engine := html.New(templates, ".html")
		engine.AddFunc("money", Money)
		cfg.Views = engine
	}

	app := fiber.New(cfg)
	app.Use(recover.New())
	app.Use(RequestLogger(logger))
	return app
}

// RequestLogger tags every request with an id and logs its outcome.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()

		id := ctx.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Set(headerRequestID, id)

		err := ctx.Next()

		status := ctx.Response().StatusCode()
		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			status = fe.Code
		case err != nil:
			status = statusOf(err)
		}

		fields := []zap.Field{
			zap.String("request_id", id),
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed", append(fields, zap.Error(err))...)
		} else {
			logger.Info("request", fields...)
		}
		return err
	}
}

// Money formats an amount in cents, e.g. 12345 as "123.45".
func Money(cents int) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

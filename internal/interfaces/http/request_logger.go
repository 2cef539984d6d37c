package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/farmacia-api/pkg/logger"
)

// RequestLogger registra cada petición de /api con su estado, duración y usuario autenticado.
// 5xx se loguea como error, 4xx como warn, el resto como info.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		if chainErr != nil {
			// El error handler de fiber aún no corrió: fijar el status que responderá.
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		var ev *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error()
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		ev = ev.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("elapsed", time.Since(start))
		if uid := GetUserID(c); uid != "" {
			ev = ev.Str("user", uid)
		}
		if branch, _ := c.Locals(LocalBranchCode).(string); branch != "" {
			ev = ev.Str("branch", branch)
		}
		ev.Msg("petición")
		return nil
	}
}

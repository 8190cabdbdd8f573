package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// NewLogger returns a fiber middleware that writes one structured log line
// per request, levelled by response status.
func NewLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		message := "HTTP Request"
		if err != nil {
			message = err.Error()
		}

		status := c.Response().StatusCode()

		requestLogger := log.With().
			Int("status", status).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Dur("duration", time.Since(start)).
			Logger()

		switch {
		case status >= fiber.StatusInternalServerError:
			requestLogger.Error().Msg(message)
		case status >= fiber.StatusBadRequest:
			requestLogger.Warn().Msg(message)
		default:
			requestLogger.Info().Msg(message)
		}

		return nil
	}
}

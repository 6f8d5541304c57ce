package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"skilltracker/backend/utils"
)

const requestIDLocal = "requestid"

func LoggingMiddleware(logger *utils.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Передаем управление следующему обработчику
		err := c.Next()

		status := c.Response().StatusCode()
		var fErr *fiber.Error
		if errors.As(err, &fErr) {
			status = fErr.Code
		}
		kv := []interface{}{
			"request_id", c.Locals(requestIDLocal),
			"ip", c.IP(),
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("Request failed", kv...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("Request rejected", kv...)
		default:
			logger.Info("Request handled", kv...)
		}

		return err
	}
}

// ErrorHandler renders errors that escape the handlers (unknown routes,
// recovered panics) in the same envelope as every other error.
func ErrorHandler(logger *utils.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fErr *fiber.Error
		if !errors.As(err, &fErr) {
			logger.Error("Unhandled error", "request_id", c.Locals(requestIDLocal), "path", c.Path(), "error", err)
		}
		return utils.HandleError(c, err)
	}
}

package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/validation"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

// fieldErrors writes a 400 with field-scoped messages when err carries them.
func fieldErrors(c *fiber.Ctx, err error) (bool, error) {
	var fe validation.FieldErrors
	if !errors.As(err, &fe) {
		return false, nil
	}
	return true, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "Please fix the highlighted fields.",
		Fields:  fe,
	})
}

// internalError logs err, reports it to Sentry and answers with a generic 500.
func internalError(c *fiber.Ctx, action string, err error) error {
	slog.ErrorContext(c.UserContext(), "request failed",
		"request_id", requestID(c),
		"action", action,
		"path", c.Path(),
		"error", err,
	)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("action", action)
			scope.SetTag("request_id", requestID(c))
			hub.CaptureException(err)
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

// safeNext keeps only site-relative paths; anything else becomes def.
func safeNext(next, def string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return def
	}
	return next
}

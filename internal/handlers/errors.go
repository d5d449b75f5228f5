package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/smartservice-backend/internal/services"
	"github.com/Ananth-NQI/smartservice-backend/internal/storage"
)

// statusFor maps service errors onto HTTP status codes and client messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrOTPExpired):
		return fiber.StatusUnauthorized, "OTP has expired. Please request a new one."
	case errors.Is(err, services.ErrOTPMismatch):
		return fiber.StatusUnauthorized, "Invalid OTP. Please try again."
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "Invalid employee ID or mobile number"
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusForbidden, "Not allowed"
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrIdentifierCollision), errors.Is(err, storage.ErrDuplicate):
		return fiber.StatusConflict, "Conflicting record, please retry"
	}
	return fiber.StatusInternalServerError, "Internal server error"
}

// fail writes err as a JSON error response.
func fail(c *fiber.Ctx, err error) error {
	code, msg := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		// surfaced to the request logger, which records the cause
		return err
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// ErrorHandler renders errors that escape a handler. fiber.Error codes are
// kept; anything else is a 500 with a generic message.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "Internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		} else {
			code, msg = statusFor(err)
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("unhandled error",
				zap.String("path", c.Path()),
				zap.Any("request_id", c.Locals("request_id")),
				zap.Error(err),
			)
		}
		return c.Status(code).JSON(fiber.Map{
			"error": msg,
		})
	}
}

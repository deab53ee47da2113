package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusFor maps a service error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrDuplicateKey),
		errors.Is(err, service.ErrReferentialConflict),
		errors.Is(err, service.ErrInsufficientStock):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrInvalidReference),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidMovementType):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrValidation):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// respond writes err as {"error": ...}. Unknown errors are logged and hidden
// behind a generic message.
func respond(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.Status(status).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
}

// parseError maps a body decoding failure. A value that cannot be coerced
// into a quantity or an id gets the matching service error kind; anything
// else is a plain bad body.
func parseError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if i := strings.LastIndex(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch {
		case field == "quantity" || field == "initial_quantity":
			return respond(c, logger, fmt.Errorf("%w: %s must be a whole number, got %s", service.ErrInvalidQuantity, field, typeErr.Value))
		case strings.HasSuffix(field, "_id"):
			return respond(c, logger, fmt.Errorf("%w: %s must be an id string, got %s", service.ErrInvalidReference, field, typeErr.Value))
		}
	}
	return badBody(c)
}

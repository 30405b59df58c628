package handlers

import (
	"errors"
	"log"

	"orderdesk/internal/repositories"
	"orderdesk/internal/services"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service and repository errors onto HTTP responses.
// action names the failed operation in the log line.
func respondError(c *fiber.Ctx, action string, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	case errors.Is(err, repositories.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Order not found",
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid credentials",
		})
	}

	log.Printf("Error %s: %v", action, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Server error",
		"error":   err.Error(),
	})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

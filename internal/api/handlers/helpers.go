package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/composer-api/internal/backend"
	"github.com/maheshrc27/composer-api/internal/service"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

// serviceError maps service-layer failures to HTTP responses. Backend auth
// failures surface as 401 so the UI can prompt a re-login instead of
// failing silently.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, backend.ErrReauthRequired), errors.Is(err, service.ErrNoBackendToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Backend session expired, please log in again",
		})
	case errors.Is(err, service.ErrRowNotFound), errors.Is(err, service.ErrPostNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, service.ErrRowLocked),
		errors.Is(err, service.ErrPostNotEditable),
		errors.Is(err, service.ErrConfirmRequired),
		errors.Is(err, service.ErrUnknownPlatform):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}

package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/composer-api/internal/service"
	"github.com/maheshrc27/composer-api/internal/transfer"
)

type SubmissionHandler struct {
	s        service.SubmissionService
	validate *validator.Validate
}

func NewSubmissionHandler(service service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{s: service, validate: validator.New()}
}

func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")

	var input transfer.SubmitInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}
	if err := h.validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	result, err := h.s.Submit(c.Context(), userID, platform, input.SocialAccountID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

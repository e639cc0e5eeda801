package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/composer-api/internal/service"
	"github.com/maheshrc27/composer-api/internal/transfer"
)

type HistoryHandler struct {
	s        service.HistoryService
	validate *validator.Validate
}

func NewHistoryHandler(service service.HistoryService) *HistoryHandler {
	return &HistoryHandler{s: service, validate: validator.New()}
}

func (h *HistoryHandler) List(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")

	query := transfer.HistoryQuery{
		Search:  c.Query("search"),
		SortBy:  c.Query("sort_by"),
		SortDir: c.Query("sort_dir"),
		Page:    c.QueryInt("page", 1),
	}

	page, err := h.s.List(c.Context(), userID, platform, query)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(page)
}

// Update submits a full replacement object for a still-scheduled post.
func (h *HistoryHandler) Update(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")
	postID := int64(c.QueryInt("id", 0))

	var input transfer.PostUpdate
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

	if err := h.s.Update(c.Context(), userID, postID, platform, &input); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// Delete requires confirm=true; without it the destructive call is
// refused.
func (h *HistoryHandler) Delete(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")
	postID := int64(c.QueryInt("id", 0))
	confirm := c.QueryBool("confirm", false)

	if err := h.s.Delete(c.Context(), userID, postID, platform, confirm); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

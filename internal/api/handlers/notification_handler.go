package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/composer-api/internal/service"
)

type NotificationHandler struct {
	s service.NotificationService
}

func NewNotificationHandler(service service.NotificationService) *NotificationHandler {
	return &NotificationHandler{s: service}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID := GetUserID(c)
	return c.Status(fiber.StatusOK).JSON(h.s.List(userID))
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"unread": h.s.UnreadCount(userID)})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID := GetUserID(c)
	notificationID := c.Params("id")

	if !h.s.MarkRead(userID, notificationID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notification not found",
		})
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID := GetUserID(c)
	h.s.MarkAllRead(userID)
	return c.SendStatus(fiber.StatusOK)
}

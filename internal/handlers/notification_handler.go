package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kku-mis/course-registration/internal/dto"
	"github.com/kku-mis/course-registration/internal/services"
	"github.com/kku-mis/course-registration/internal/session"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	user, err := session.User(c)
	if err != nil {
		return writeError(c, services.ErrUnauthorized)
	}

	list, err := h.notifications.ListForUser(c.UserContext(), user.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	user, err := session.User(c)
	if err != nil {
		return writeError(c, services.ErrUnauthorized)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.notifications.MarkRead(c.UserContext(), user.ID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	user, err := session.User(c)
	if err != nil {
		return writeError(c, services.ErrUnauthorized)
	}

	updated, err := h.notifications.MarkAllRead(c.UserContext(), user.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "All notifications marked as read", "updated": updated})
}

func (h *NotificationHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	notification, err := h.notifications.Create(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(notification)
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"logbloga/internal/services"
)

type NotificationHandler struct {
	Notes *services.NotificationService
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	page := c.QueryInt("page", 1)
	notes, err := h.Notes.List(u.ID, page, 20)
	if err != nil {
		return svcError(c, "notifications.list", err)
	}
	unread, err := h.Notes.UnreadCount(u.ID)
	if err != nil {
		return svcError(c, "notifications.unread", err)
	}
	return c.JSON(fiber.Map{"notifications": notes, "unread": unread, "page": page})
}

// MarkRead is scoped to the caller; marking someone else's notification id
// is a silent no-op.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	u := currentUser(c)
	if err := h.Notes.MarkRead(u.ID, c.Params("id")); err != nil {
		return svcError(c, "notifications.mark_read", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	u := currentUser(c)
	if err := h.Notes.MarkAllRead(u.ID); err != nil {
		return svcError(c, "notifications.mark_all_read", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

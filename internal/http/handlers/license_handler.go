package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "logbloga/internal/log"
	"logbloga/internal/services"
)

type LicenseHandler struct {
	Licenses *services.LicenseService
}

// List returns the signed-in user's licenses, revoked ones included.
func (h *LicenseHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	lics, err := h.Licenses.ListByUser(u.ID)
	if err != nil {
		return svcError(c, "licenses.list", err)
	}
	return c.JSON(fiber.Map{"licenses": lics})
}

// Verify checks a license key. Public: vendors and support can confirm a key
// without an account. Revoked keys report valid=false with the license attached.
func (h *LicenseHandler) Verify(c *fiber.Ctx) error {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		return badRequest(c, "License key is required")
	}
	lic, valid, err := h.Licenses.Verify(key)
	if err != nil {
		return svcError(c, "license.verify", err)
	}
	if lic.ID == "" {
		applog.Security(c, "license.verify.unknown", map[string]any{"key": key})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"valid": false, "error": "License not found"})
	}
	return c.JSON(fiber.Map{"valid": valid, "license": lic})
}

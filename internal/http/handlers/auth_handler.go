package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	applog "logbloga/internal/log"
	"logbloga/internal/services"
	"logbloga/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
	Cart *services.CartService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// GuestCart is the browser-held cart blob, forwarded on sign-in so the
	// server can reconcile it with the account cart.
	GuestCart string `json:"guest_cart,omitempty"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)

	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Malformed request body")
	}
	if _, ok := validate.Email(req.Email); !ok {
		applog.Security(c, "auth.login.fail", map[string]any{"email": req.Email, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	if !validate.Password(req.Password) {
		applog.Security(c, "auth.login.fail", map[string]any{"email": req.Email, "reason": "bad_password_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	u, err := h.Auth.Login(sid, req.Email, req.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": req.Email})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	c.Locals("user", u)

	merged := 0
	if req.GuestCart != "" && h.Cart != nil {
		// Best-effort: a bad guest blob never blocks the login itself.
		if n, err := h.Cart.MergeGuest(u.ID, sid, []byte(req.GuestCart)); err != nil {
			applog.Error(c, "auth.login.cart_merge", err, nil)
		} else {
			merged = n
		}
	}

	applog.Audit(c, "auth.login.success", map[string]any{"email": req.Email, "cart_merged": merged})
	return c.JSON(fiber.Map{
		"user":              fiber.Map{"id": u.ID, "email": u.Email, "name": u.Name, "role": u.Role},
		"merged_cart_items": merged,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	_ = h.Auth.Logout(sid)
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	applog.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.JSON(fiber.Map{"ok": true})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u := currentUser(c)
	if u == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Sign in required"})
	}
	return c.JSON(fiber.Map{"id": u.ID, "email": u.Email, "name": u.Name, "role": u.Role})
}

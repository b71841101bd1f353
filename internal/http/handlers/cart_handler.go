package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "logbloga/internal/log"
	"logbloga/internal/services"
	"logbloga/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

func (h *CartHandler) userID(c *fiber.Ctx) string {
	if u := currentUser(c); u != nil {
		return u.ID
	}
	return ""
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	sid := ensureSID(c)
	view, err := h.Cart.View(h.userID(c), sid)
	if err != nil {
		return svcError(c, "cart.view", err)
	}
	return c.JSON(view)
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req cartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Malformed request body")
	}
	if _, ok := validate.ID(req.ProductID); !ok {
		return badRequest(c, "Product not found")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := h.Cart.Add(h.userID(c), sid, req.ProductID, req.VariantID, req.Quantity); err != nil {
		return svcError(c, "cart.add", err)
	}
	applog.Info(c, "cart.add", map[string]any{"product": req.ProductID, "qty": req.Quantity})
	return h.View(c)
}

func (h *CartHandler) SetQty(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req cartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Malformed request body")
	}
	if pid := c.Params("productId"); pid != "" {
		req.ProductID = pid
	}
	if _, ok := validate.ID(req.ProductID); !ok {
		return badRequest(c, "Product not found")
	}
	if req.Quantity > validate.MaxLineQty {
		return badRequest(c, "Maximum quantity is 10 per item")
	}
	if err := h.Cart.SetQty(h.userID(c), sid, req.ProductID, req.VariantID, req.Quantity); err != nil {
		return svcError(c, "cart.set_qty", err)
	}
	return h.View(c)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	productID, ok := validate.ID(c.Params("productId"))
	if !ok {
		return badRequest(c, "Product not found")
	}
	variantID := c.Query("variant")
	if err := h.Cart.Remove(h.userID(c), sid, productID, variantID); err != nil {
		return svcError(c, "cart.remove", err)
	}
	return h.View(c)
}

// Validate lets the client check a line before committing it.
func (h *CartHandler) Validate(c *fiber.Ctx) error {
	var req cartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Malformed request body")
	}
	p, err := h.Cart.Prods.Get(req.ProductID)
	if err != nil {
		return c.JSON(services.ValidateItem(nil, req.Quantity))
	}
	return c.JSON(services.ValidateItem(&p, req.Quantity))
}

// Merge reconciles a guest cart blob into the signed-in user's cart.
func (h *CartHandler) Merge(c *fiber.Ctx) error {
	u := currentUser(c)
	if u == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Sign in required"})
	}
	sid := ensureSID(c)
	merged, err := h.Cart.MergeGuest(u.ID, sid, c.Body())
	if err != nil {
		return svcError(c, "cart.merge", err)
	}
	applog.Audit(c, "cart.merge", map[string]any{"merged": merged})
	view, err := h.Cart.View(u.ID, sid)
	if err != nil {
		return svcError(c, "cart.merge.view", err)
	}
	return c.JSON(fiber.Map{"merged": merged, "cart": view})
}

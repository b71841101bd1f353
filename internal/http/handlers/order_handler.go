package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "logbloga/internal/log"
	"logbloga/internal/repos"
	"logbloga/internal/services"
	"logbloga/internal/validate"
)

type OrderHandler struct {
	Cart  *services.CartService
	Order *services.OrderService
	Repo  *repos.OrderRepo
	Auth  *services.AuthService
}

type createOrderRequest struct {
	CouponCode string `json:"coupon_code,omitempty"`
}

// Create turns the cart into a pending order, or resumes a matching pending
// one, then hands off to the hosted payment page.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	u := currentUser(c)
	if u == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Sign in required"})
	}
	sid := ensureSID(c)

	var req createOrderRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Malformed request body")
		}
	}
	if req.CouponCode != "" {
		code, ok := validate.CouponCode(req.CouponCode)
		if !ok {
			return badRequest(c, "Invalid or expired coupon code")
		}
		req.CouponCode = code
	}

	order, items, resumed, err := h.Order.CreateOrResume(u, sid, req.CouponCode)
	if err != nil {
		return svcError(c, "order.create", err)
	}

	checkoutURL, err := h.Order.StartCheckout(order, items)
	if err != nil {
		// The order exists; payment can be retried.
		applog.Error(c, "order.checkout_session", err, map[string]any{"order_id": order.ID})
	}

	applog.Audit(c, "order.create", map[string]any{
		"order_id": order.ID,
		"resumed":  resumed,
		"total":    order.Total,
	})

	status := fiber.StatusCreated
	if resumed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{
		"order":        order,
		"items":        items,
		"resumed":      resumed,
		"checkout_url": checkoutURL,
	})
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
	}

	o, items, err := h.Repo.Get(oid)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
	}

	// Ownership: the buyer or an admin. Anyone else sees a 404, not a 403,
	// so order ids cannot be enumerated.
	u := currentUser(c)
	owner := u != nil && u.ID == o.UserID
	admin := u != nil && u.Role == "ADMIN"
	if !owner && !admin {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
	}

	return c.JSON(fiber.Map{"order": o, "items": items})
}

// History lists the signed-in user's orders, newest first.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	u := currentUser(c)
	if u == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Sign in required"})
	}
	orders, err := h.Repo.ListByUser(u.ID)
	if err != nil {
		return svcError(c, "orders.history", err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

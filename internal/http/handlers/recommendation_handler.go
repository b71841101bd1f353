package handlers

import (
	"github.com/gofiber/fiber/v2"

	"logbloga/internal/services"
	"logbloga/internal/validate"
)

type RecommendationHandler struct {
	Recs *services.RecommendationService
}

// ForProduct powers the "customers also bought" strip on product pages.
func (h *RecommendationHandler) ForProduct(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "Invalid product id")
	}
	prods, err := h.Recs.ForProduct(pid)
	if err != nil {
		return svcError(c, "recommendations.product", err)
	}
	return c.JSON(fiber.Map{"recommendations": prods})
}

func (h *RecommendationHandler) ForUser(c *fiber.Ctx) error {
	u := currentUser(c)
	prods, err := h.Recs.ForUser(u.ID)
	if err != nil {
		return svcError(c, "recommendations.user", err)
	}
	return c.JSON(fiber.Map{"recommendations": prods})
}

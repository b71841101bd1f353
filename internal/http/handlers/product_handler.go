package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"logbloga/internal/services"
	"logbloga/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		return svcError(c, "catalog.categories", err)
	}
	return c.JSON(fiber.Map{"categories": cats})
}

func (h *ProductHandler) ListByCategory(c *fiber.Ctx) error {
	catID, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "Invalid category id")
	}
	page, _ := strconv.Atoi(c.Query("page", "1"))
	products, err := h.Catalog.ListProductsByCategory(catID, page, 12)
	if err != nil {
		return svcError(c, "catalog.list", err)
	}
	return c.JSON(fiber.Map{"products": products, "page": page})
}

// Detail accepts either a product id or a slug.
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	key := c.Params("id")
	if _, ok := validate.ID(key); !ok {
		return badRequest(c, "Invalid product id")
	}
	p, err := h.Catalog.GetProduct(key)
	if err != nil {
		if slug, ok := validate.Slug(key); ok {
			if bySlug, serr := h.Catalog.GetProductBySlug(slug); serr == nil {
				return c.JSON(bySlug)
			}
		}
		return svcError(c, "catalog.detail", err)
	}
	return c.JSON(p)
}

func (h *ProductHandler) Search(c *fiber.Ctx) error {
	q := ""
	if raw := c.Query("q"); raw != "" {
		var ok bool
		if q, ok = validate.Q(raw); !ok {
			return badRequest(c, "Invalid search query")
		}
	}
	category := c.Query("category")
	productType := c.Query("type")
	if productType != "" && productType != "individual" && productType != "package" {
		return badRequest(c, "Invalid product type")
	}
	page, _ := strconv.Atoi(c.Query("page", "1"))

	products, err := h.Catalog.Search(q, category, productType, page, 12)
	if err != nil {
		return svcError(c, "catalog.search", err)
	}
	return c.JSON(fiber.Map{"products": products, "page": page})
}

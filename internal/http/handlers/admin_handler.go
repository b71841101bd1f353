package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"logbloga/internal/domain"
	applog "logbloga/internal/log"
	"logbloga/internal/repos"
	"logbloga/internal/services"
	"logbloga/internal/validate"
)

type AdminHandler struct {
	Analytics *services.AnalyticsService
	OrderRepo *repos.OrderRepo
	Products  *repos.ProductRepo
	Cats      *repos.CategoryRepo
	Piracy    *services.PiracyService
	Licenses  *services.LicenseService
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	days := c.QueryInt("days", 30)
	if days < 1 || days > 365 {
		days = 30
	}
	dash, err := h.Analytics.Dashboard(days)
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load dashboard"})
	}
	return render(c, "admin_dashboard", fiber.Map{"Dash": dash, "Days": days})
}

// GET /admin/orders
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	ords, err := h.OrderRepo.ListLatest(100)
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	return render(c, "admin_orders", fiber.Map{"Orders": ords})
}

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	status := c.FormValue("status")
	if id == "" || status == "" {
		return c.Status(400).SendString("missing id or status")
	}
	if err := h.OrderRepo.UpdateStatus(id, status); err != nil {
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
		return c.Status(400).SendString("could not update status")
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": status})
	return c.Redirect("/admin/orders")
}

// GET /admin/products
func (h *AdminHandler) ProductsPage(c *fiber.Ctx) error {
	prods, err := h.Products.ListAll()
	if err != nil {
		applog.Error(c, "admin.products.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load products"})
	}
	cats, err := h.Cats.List()
	if err != nil {
		applog.Error(c, "admin.products.categories.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load products"})
	}
	return render(c, "admin_products", fiber.Map{"Products": prods, "Categories": cats})
}

// POST /admin/products creates a product, or updates it when the form
// carries an existing id.
func (h *AdminHandler) SaveProduct(c *fiber.Ctx) error {
	title, okTitle := validate.Name(c.FormValue("title"))
	slug, okSlug := validate.Slug(c.FormValue("slug"))
	catID, okCat := validate.ID(c.FormValue("category_id"))
	productType := c.FormValue("product_type")
	price, perr := strconv.ParseFloat(c.FormValue("price"), 64)
	if !okTitle || !okSlug || !okCat || perr != nil || price < 0 ||
		(productType != "individual" && productType != "package") {
		return c.Status(400).SendString("invalid input")
	}

	p := domain.Product{
		Slug: slug, CategoryID: catID, Title: title,
		Description: c.FormValue("description"),
		ProductType: productType, Price: price,
		ContentMD: c.FormValue("content_md"),
		Active:    c.FormValue("active") != "",
	}

	if id := c.FormValue("id"); id != "" {
		existing, err := h.Products.Get(id)
		if err != nil {
			applog.Error(c, "admin.products.save.fail", err, map[string]any{"product_id": id})
			return c.Status(400).SendString("unknown product")
		}
		p.ID = existing.ID
		p.ImagesJSON = existing.ImagesJSON
		p.LevelsJSON = existing.LevelsJSON
		if p.ContentMD == "" {
			p.ContentMD = existing.ContentMD
		}
		if err := h.Products.Update(p); err != nil {
			applog.Error(c, "admin.products.save.fail", err, map[string]any{"product_id": p.ID})
			return c.Status(400).SendString("could not save product")
		}
	} else {
		p.ID = uuid.NewString()
		p.ImagesJSON = "[]"
		if err := h.Products.Create(p); err != nil {
			applog.Error(c, "admin.products.save.fail", err, map[string]any{"slug": p.Slug})
			return c.Status(400).SendString("could not save product")
		}
	}

	applog.Audit(c, "admin.products.save", map[string]any{"product_id": p.ID, "slug": p.Slug})
	return c.Redirect("/admin/products")
}

// POST /admin/products/:id/deactivate hides a product from the storefront;
// order history and issued licenses keep their snapshots.
func (h *AdminHandler) DeactivateProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("invalid id")
	}
	if _, err := h.Products.Get(id); err != nil {
		return c.Status(400).SendString("unknown product")
	}
	if err := h.Products.Deactivate(id); err != nil {
		applog.Error(c, "admin.products.deactivate.fail", err, map[string]any{"product_id": id})
		return c.Status(400).SendString("could not deactivate product")
	}
	applog.Audit(c, "admin.products.deactivate", map[string]any{"product_id": id})
	return c.Redirect("/admin/products")
}

// GET /admin/piracy
func (h *AdminHandler) PiracyPage(c *fiber.Ctx) error {
	reports, err := h.Piracy.List(c.Query("status"))
	if err != nil {
		applog.Error(c, "admin.piracy.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load reports"})
	}
	return render(c, "admin_piracy", fiber.Map{"Reports": reports, "Filter": c.Query("status")})
}

// POST /admin/piracy/:id/status
func (h *AdminHandler) UpdatePiracyStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	status := c.FormValue("status")
	if id == "" || status == "" {
		return c.Status(400).SendString("missing id or status")
	}
	if err := h.Piracy.SetStatus(id, status); err != nil {
		if msg, ok := services.IsValidation(err); ok {
			return c.Status(400).SendString(msg)
		}
		applog.Error(c, "admin.piracy.update.fail", err, map[string]any{"report_id": id})
		return c.Status(400).SendString("could not update report")
	}
	applog.Audit(c, "admin.piracy.update", map[string]any{"report_id": id, "status": status})
	return c.Redirect("/admin/piracy")
}

// GET /admin/piracy/:id/notice renders a DMCA takedown letter as plain text
// and moves the report to the reviewing state.
func (h *AdminHandler) DMCANotice(c *fiber.Ctx) error {
	id := c.Params("id")
	notice, err := h.Piracy.DMCANotice(id)
	if err != nil {
		applog.Error(c, "admin.piracy.notice.fail", err, map[string]any{"report_id": id})
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Report not found"})
	}
	applog.Audit(c, "admin.piracy.notice", map[string]any{"report_id": id})
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(notice)
}

// POST /admin/licenses/:id/revoke
func (h *AdminHandler) RevokeLicense(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("invalid id")
	}
	if err := h.Licenses.Revoke(id); err != nil {
		applog.Error(c, "admin.license.revoke.fail", err, map[string]any{"license_id": id})
		return c.Status(400).SendString("could not revoke license")
	}
	applog.Audit(c, "admin.license.revoke", map[string]any{"license_id": id})
	return c.Redirect("/admin")
}

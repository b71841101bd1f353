package handlers

import (
	"github.com/gofiber/fiber/v2"

	"logbloga/internal/content"
	applog "logbloga/internal/log"
	"logbloga/internal/repos"
	"logbloga/internal/services"
	"logbloga/internal/validate"
)

type ContentHandler struct {
	Catalog *services.CatalogService
	Access  *repos.AccessRepo
	Piracy  *services.PiracyService
}

// gate loads the product and checks the caller may read its content.
func (h *ContentHandler) gate(c *fiber.Ctx) (productID string, body string, err error) {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return "", "", c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}
	p, err := h.Catalog.GetProduct(pid)
	if err != nil {
		return "", "", c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}

	u := currentUser(c)
	if u.Role != "ADMIN" {
		has, aerr := h.Access.Has(u.ID, p.ID)
		if aerr != nil {
			return "", "", svcError(c, "content.access", aerr)
		}
		if !has {
			applog.Security(c, "access.denied.content", map[string]any{"product_id": p.ID})
			return "", "", c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Purchase required"})
		}
	}
	return p.ID, content.StripAuthoringPreamble(p.ContentMD), nil
}

func (h *ContentHandler) HTML(c *fiber.Ctx) error {
	pid, body, err := h.gate(c)
	if err != nil || pid == "" {
		return err
	}
	html, err := content.ToHTML(body)
	if err != nil {
		return svcError(c, "content.render_html", err)
	}
	applog.Audit(c, "content.read", map[string]any{"product_id": pid, "format": "html"})
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}

func (h *ContentHandler) PDF(c *fiber.Ctx) error {
	pid, body, err := h.gate(c)
	if err != nil || pid == "" {
		return err
	}
	pdf, err := content.ToPDF(body)
	if err != nil {
		return svcError(c, "content.render_pdf", err)
	}
	applog.Audit(c, "content.read", map[string]any{"product_id": pid, "format": "pdf"})
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+pid+`.pdf"`)
	return c.Send(pdf)
}

type piracyReportRequest struct {
	ProductID string `json:"product_id"`
	URL       string `json:"url"`
	Email     string `json:"email,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// ReportPiracy accepts takedown tips from anyone, signed in or not.
func (h *ContentHandler) ReportPiracy(c *fiber.Ctx) error {
	var req piracyReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Malformed request body")
	}
	pid, ok := validate.ID(req.ProductID)
	if !ok {
		return badRequest(c, "Invalid product id")
	}
	url, ok := validate.ReportURL(req.URL)
	if !ok {
		return badRequest(c, "A valid http(s) URL is required")
	}

	reportedBy := req.Email
	if u := currentUser(c); u != nil {
		reportedBy = u.Email
	}

	id, err := h.Piracy.Report(pid, url, reportedBy, req.Notes)
	if err != nil {
		return svcError(c, "piracy.report", err)
	}
	applog.Audit(c, "piracy.report", map[string]any{"report_id": id, "product_id": pid})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"report_id": id})
}

package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"logbloga/internal/config"
	"logbloga/internal/http/handlers"
	applog "logbloga/internal/log"
	"logbloga/internal/repos"
	"logbloga/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	cartRepo := repos.NewCartRepo(db)
	authSvc := &services.AuthService{Users: userRepo, Carts: cartRepo}

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Something went wrong. Please try again.",
			})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(handlers.AttachUser(authSvc))
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
		},
	}))

	// ---------- Static assets ----------
	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	app.Static("/static", "./web/static")
	// Guarded media to avoid traversal
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(mediaDir, clean), true)
	})

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, authSvc)
	authH := &handlers.AuthHandler{Auth: authSvc, Cart: deps.CartHandler.Cart}

	api := app.Group("/api/v1")

	// Payment provider callbacks: raw body + signature check, no session.
	api.Post("/webhooks/stripe", deps.WebhookHandler.Stripe)

	// Auth (login throttled)
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/me", authH.Me)

	// Catalog
	api.Get("/categories", deps.ProductHandler.Categories)
	api.Get("/categories/:id/products", deps.ProductHandler.ListByCategory)
	api.Get("/products/search", limiter.New(limiter.Config{Max: 30, Expiration: time.Minute}), deps.ProductHandler.Search)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Get("/products/:id/recommendations", deps.RecommendationHandler.ForProduct)

	// Cart
	api.Get("/cart", deps.CartHandler.View)
	api.Post("/cart/items", deps.CartHandler.Add)
	api.Put("/cart/items/:productId", deps.CartHandler.SetQty)
	api.Delete("/cart/items/:productId", deps.CartHandler.Remove)
	api.Post("/cart/validate", deps.CartHandler.Validate)
	api.Post("/cart/merge", handlers.RequireUser(authSvc), deps.CartHandler.Merge)

	// Orders & licenses
	api.Post("/orders", handlers.RequireUser(authSvc), deps.OrderHandler.Create)
	api.Get("/orders", handlers.RequireUser(authSvc), deps.OrderHandler.History)
	api.Get("/orders/:id", deps.OrderHandler.View)
	api.Get("/licenses", handlers.RequireUser(authSvc), deps.LicenseHandler.List)
	api.Get("/licenses/verify", deps.LicenseHandler.Verify)

	// Purchased content
	api.Get("/content/:id/html", handlers.RequireUser(authSvc), deps.ContentHandler.HTML)
	api.Get("/content/:id/pdf", handlers.RequireUser(authSvc), deps.ContentHandler.PDF)
	api.Post("/piracy-reports", deps.ContentHandler.ReportPiracy)

	// Notifications & recommendations
	api.Get("/notifications", handlers.RequireUser(authSvc), deps.NotificationHandler.List)
	api.Post("/notifications/:id/read", handlers.RequireUser(authSvc), deps.NotificationHandler.MarkRead)
	api.Post("/notifications/read-all", handlers.RequireUser(authSvc), deps.NotificationHandler.MarkAllRead)
	api.Get("/recommendations", handlers.RequireUser(authSvc), deps.RecommendationHandler.ForUser)

	// Admin (HTML, form-posted, CSRF-protected)
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"form": c.FormValue("csrf")})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	admin.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})
	admin.Get("/", deps.AdminHandler.Dashboard)
	admin.Get("/orders", deps.AdminHandler.OrdersPage)
	admin.Get("/products", deps.AdminHandler.ProductsPage)
	admin.Post("/products", deps.AdminHandler.SaveProduct)
	admin.Post("/products/:id/deactivate", deps.AdminHandler.DeactivateProduct)
	admin.Post("/orders/:id/status", deps.AdminHandler.UpdateOrderStatus)
	admin.Get("/piracy", deps.AdminHandler.PiracyPage)
	admin.Post("/piracy/:id/status", deps.AdminHandler.UpdatePiracyStatus)
	admin.Get("/piracy/:id/notice", deps.AdminHandler.DMCANotice)
	admin.Post("/licenses/:id/revoke", deps.AdminHandler.RevokeLicense)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{"error": "Not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}

package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"logbloga/internal/config"
	"logbloga/internal/http/handlers"
	"logbloga/internal/repos"
	"logbloga/internal/services"
)

// newTestApp wires the API surface against a seeded in-memory database,
// mirroring the routing in cmd/logbloga.
func newTestApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	userRepo := repos.NewUserRepo(db)
	cartRepo := repos.NewCartRepo(db)
	authSvc := &services.AuthService{Users: userRepo, Carts: cartRepo}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(handlers.AttachUser(authSvc))

	deps := handlers.NewDeps(db, config.Config{BaseURL: "http://test.local"}, authSvc)
	authH := &handlers.AuthHandler{Auth: authSvc, Cart: deps.CartHandler.Cart}

	api := app.Group("/api/v1")
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/me", authH.Me)

	api.Get("/categories", deps.ProductHandler.Categories)
	api.Get("/products/search", deps.ProductHandler.Search)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Get("/products/:id/recommendations", deps.RecommendationHandler.ForProduct)

	api.Get("/cart", deps.CartHandler.View)
	api.Post("/cart/items", deps.CartHandler.Add)
	api.Put("/cart/items/:productId", deps.CartHandler.SetQty)
	api.Delete("/cart/items/:productId", deps.CartHandler.Remove)
	api.Post("/cart/validate", deps.CartHandler.Validate)
	api.Post("/cart/merge", handlers.RequireUser(authSvc), deps.CartHandler.Merge)

	api.Post("/orders", handlers.RequireUser(authSvc), deps.OrderHandler.Create)
	api.Get("/orders", handlers.RequireUser(authSvc), deps.OrderHandler.History)
	api.Get("/orders/:id", deps.OrderHandler.View)
	api.Get("/licenses", handlers.RequireUser(authSvc), deps.LicenseHandler.List)
	api.Get("/licenses/verify", deps.LicenseHandler.Verify)

	api.Get("/content/:id/html", handlers.RequireUser(authSvc), deps.ContentHandler.HTML)
	api.Get("/content/:id/pdf", handlers.RequireUser(authSvc), deps.ContentHandler.PDF)
	api.Post("/piracy-reports", deps.ContentHandler.ReportPiracy)

	api.Get("/notifications", handlers.RequireUser(authSvc), deps.NotificationHandler.List)
	api.Post("/notifications/:id/read", handlers.RequireUser(authSvc), deps.NotificationHandler.MarkRead)
	api.Post("/webhooks/stripe", deps.WebhookHandler.Stripe)

	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", deps.AdminHandler.Dashboard)
	admin.Get("/orders", deps.AdminHandler.OrdersPage)
	admin.Get("/products", deps.AdminHandler.ProductsPage)
	admin.Post("/products", deps.AdminHandler.SaveProduct)
	admin.Post("/products/:id/deactivate", deps.AdminHandler.DeactivateProduct)
	admin.Get("/piracy", deps.AdminHandler.PiracyPage)
	admin.Get("/piracy/:id/notice", deps.AdminHandler.DMCANotice)

	return app, db
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// jsonReq builds a request with a JSON body and optional session cookie.
func jsonReq(method, target, body, sid string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// login signs a seeded user in and returns the bound session id.
func login(t *testing.T, app *fiber.App, email, guestCart string) string {
	t.Helper()
	body := `{"email":"` + email + `","password":"Passw0rd!"`
	if guestCart != "" {
		escaped, _ := json.Marshal(guestCart)
		body += `,"guest_cart":` + string(escaped)
	}
	body += `}`

	resp, err := app.Test(jsonReq("POST", "/api/v1/auth/login", body, ""))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed with %d", resp.StatusCode)
	}
	sid := cookieValue(resp, "sid")
	if sid == "" {
		t.Fatal("no session cookie on login")
	}
	return sid
}

package handlers_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"logbloga/internal/domain"
	"logbloga/internal/repos"
)

type orderResp struct {
	Order       repos.OrderRow       `json:"order"`
	Items       []repos.OrderItemRow `json:"items"`
	Resumed     bool                 `json:"resumed"`
	CheckoutURL string               `json:"checkout_url"`
}

func TestOrderCreateResumeAndOwnership(t *testing.T) {
	app, _ := newTestApp(t)

	// Checkout demands a session.
	resp, _ := app.Test(jsonReq("POST", "/api/v1/orders", `{}`, ""))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401 unauthenticated, got %d", resp.StatusCode)
	}

	sid := login(t, app, "alice@logbloga.test", "")
	addResp, _ := app.Test(jsonReq("POST", "/api/v1/cart/items", `{"productId":"crs-structured-101","quantity":2}`, sid))
	if addResp.StatusCode != http.StatusOK {
		t.Fatalf("cart add failed: %d", addResp.StatusCode)
	}

	// Bad coupon is rejected before any order exists.
	resp, _ = app.Test(jsonReq("POST", "/api/v1/orders", `{"coupon_code":"BOGUS"}`, sid))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400 for bad coupon, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(jsonReq("POST", "/api/v1/orders", `{"coupon_code":"LAUNCH25"}`, sid))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("want 201, got %d", resp.StatusCode)
	}
	var created orderResp
	decodeBody(t, resp, &created)
	// 2x49 - 25 = 73
	if created.Order.Total != 73 || created.Resumed {
		t.Fatalf("bad created order: %+v", created.Order)
	}
	if created.Order.Status != domain.StatusPending {
		t.Fatalf("want pending, got %s", created.Order.Status)
	}

	// Same cart: resumed order, 200 not 201.
	resp, _ = app.Test(jsonReq("POST", "/api/v1/orders", `{"coupon_code":"LAUNCH25"}`, sid))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200 on resume, got %d", resp.StatusCode)
	}
	var resumed orderResp
	decodeBody(t, resp, &resumed)
	if !resumed.Resumed || resumed.Order.ID != created.Order.ID {
		t.Fatalf("expected resume of %s, got %+v", created.Order.ID, resumed.Order)
	}

	// The buyer can read the order.
	resp, _ = app.Test(jsonReq("GET", "/api/v1/orders/"+created.Order.ID, "", sid))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner read failed: %d", resp.StatusCode)
	}

	// Another user gets a 404, not a 403.
	bobSID := login(t, app, "bob@logbloga.test", "")
	resp, _ = app.Test(jsonReq("GET", "/api/v1/orders/"+created.Order.ID, "", bobSID))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404 for foreign order, got %d", resp.StatusCode)
	}

	// History shows the order for its owner only.
	resp, _ = app.Test(jsonReq("GET", "/api/v1/orders", "", sid))
	var hist struct {
		Orders []repos.OrderRow `json:"orders"`
	}
	decodeBody(t, resp, &hist)
	if len(hist.Orders) != 1 || hist.Orders[0].ID != created.Order.ID {
		t.Fatalf("bad history: %+v", hist.Orders)
	}

	// Empty cart checkout is a validation error.
	resp, _ = app.Test(jsonReq("POST", "/api/v1/orders", `{}`, bobSID))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400 for empty cart, got %d", resp.StatusCode)
	}
	var errBody map[string]string
	decodeBody(t, resp, &errBody)
	if errBody["error"] != "Cart is empty" {
		t.Fatalf("wrong error: %q", errBody["error"])
	}
}

func TestContentGatedByPurchase(t *testing.T) {
	app, db := newTestApp(t)

	sid := login(t, app, "alice@logbloga.test", "")

	// No purchase yet: forbidden.
	resp, _ := app.Test(jsonReq("GET", "/api/v1/content/crs-structured-101/html", "", sid))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("want 403 before purchase, got %d", resp.StatusCode)
	}

	if err := repos.NewAccessRepo(db).Grant("u-alice", "crs-structured-101"); err != nil {
		t.Fatal(err)
	}

	resp, _ = app.Test(jsonReq("GET", "/api/v1/content/crs-structured-101/html", "", sid))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200 after grant, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "<h1") {
		t.Fatalf("expected rendered HTML, got:\n%s", body)
	}

	resp, _ = app.Test(jsonReq("GET", "/api/v1/content/crs-structured-101/pdf", "", sid))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pdf want 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("wrong content type %q", ct)
	}
	pdfBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.HasPrefix(string(pdfBody), "%PDF-") {
		t.Fatal("pdf endpoint did not return a PDF")
	}

	// Admins read everything.
	adminSID := login(t, app, "admin@logbloga.test", "")
	resp, _ = app.Test(jsonReq("GET", "/api/v1/content/tpl-runbook/html", "", adminSID))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin read failed: %d", resp.StatusCode)
	}
}

func TestLicenseVerifyEndpoint(t *testing.T) {
	app, db := newTestApp(t)

	lic := domain.License{
		ID: "lic-1", Key: "key-abc-123", UserID: "u-alice",
		OrderID: "ord-x", ProductID: "tpl-runbook", Status: domain.LicenseActive,
	}
	if err := repos.NewLicenseRepo(db).Insert(lic); err != nil {
		t.Fatal(err)
	}

	resp, _ := app.Test(jsonReq("GET", "/api/v1/licenses/verify?key=key-abc-123", "", ""))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify failed: %d", resp.StatusCode)
	}
	var body struct {
		Valid   bool           `json:"valid"`
		License domain.License `json:"license"`
	}
	decodeBody(t, resp, &body)
	if !body.Valid || body.License.ProductID != "tpl-runbook" {
		t.Fatalf("bad verify body: %+v", body)
	}

	resp, _ = app.Test(jsonReq("GET", "/api/v1/licenses/verify?key=no-such-key", "", ""))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404 for unknown key, got %d", resp.StatusCode)
	}
}

func TestAdminSurfaceRequiresAdmin(t *testing.T) {
	app, _ := newTestApp(t)

	// Anonymous and regular users are both turned away.
	resp, _ := app.Test(jsonReq("GET", "/admin/orders", "", ""))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("anonymous want 403, got %d", resp.StatusCode)
	}

	userSID := login(t, app, "bob@logbloga.test", "")
	resp, _ = app.Test(jsonReq("GET", "/admin/orders", "", userSID))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("regular user want 403, got %d", resp.StatusCode)
	}

	adminSID := login(t, app, "admin@logbloga.test", "")
	resp, _ = app.Test(jsonReq("GET", "/admin/orders", "", adminSID))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin want 200, got %d", resp.StatusCode)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	app, _ := newTestApp(t)

	// No secret configured: the route does not exist.
	resp, _ := app.Test(jsonReq("POST", "/api/v1/webhooks/stripe", `{"type":"checkout.session.completed"}`, ""))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404 without secret, got %d", resp.StatusCode)
	}
}

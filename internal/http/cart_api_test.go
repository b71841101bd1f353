package handlers_test

import (
	"net/http"
	"testing"

	"logbloga/internal/repos"
	"logbloga/internal/services"
)

type cartResp struct {
	Items []repos.CartItem `json:"items"`
	Count int              `json:"count"`
	Total float64          `json:"total"`
}

func TestCartAddViewUpdateRemove(t *testing.T) {
	app, _ := newTestApp(t)

	// Anonymous add creates the session cart.
	resp, err := app.Test(jsonReq("POST", "/api/v1/cart/items", `{"productId":"tpl-runbook","quantity":2}`, ""))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add failed: %d", resp.StatusCode)
	}
	sid := cookieValue(resp, "sid")
	if sid == "" {
		t.Fatal("no session cookie issued")
	}
	var cv cartResp
	decodeBody(t, resp, &cv)
	if cv.Count != 2 || cv.Total != 38 {
		t.Fatalf("bad cart after add: %+v", cv)
	}

	// Re-adding the same product sums quantities on one line.
	resp, _ = app.Test(jsonReq("POST", "/api/v1/cart/items", `{"productId":"tpl-runbook","quantity":3}`, sid))
	decodeBody(t, resp, &cv)
	if len(cv.Items) != 1 || cv.Items[0].Qty != 5 {
		t.Fatalf("quantities not summed: %+v", cv.Items)
	}

	// Quantity above the cap is rejected with the exact message.
	resp, _ = app.Test(jsonReq("PUT", "/api/v1/cart/items/tpl-runbook", `{"quantity":11}`, sid))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
	var errBody map[string]string
	decodeBody(t, resp, &errBody)
	if errBody["error"] != "Maximum quantity is 10 per item" {
		t.Fatalf("wrong error: %q", errBody["error"])
	}

	// Setting quantity to zero removes the line.
	resp, _ = app.Test(jsonReq("PUT", "/api/v1/cart/items/tpl-runbook", `{"quantity":0}`, sid))
	decodeBody(t, resp, &cv)
	if len(cv.Items) != 0 {
		t.Fatalf("zero qty should remove the line: %+v", cv.Items)
	}

	// Unknown product add fails validation.
	resp, _ = app.Test(jsonReq("POST", "/api/v1/cart/items", `{"productId":"nope-404","quantity":1}`, sid))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400 for unknown product, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &errBody)
	if errBody["error"] != "Product not found" {
		t.Fatalf("wrong error: %q", errBody["error"])
	}
}

func TestCartValidateEndpoint(t *testing.T) {
	app, db := newTestApp(t)

	var res services.ValidationResult
	resp, _ := app.Test(jsonReq("POST", "/api/v1/cart/validate", `{"productId":"crs-structured-101","quantity":3}`, ""))
	decodeBody(t, resp, &res)
	if !res.Valid {
		t.Fatalf("valid line rejected: %+v", res)
	}

	resp, _ = app.Test(jsonReq("POST", "/api/v1/cart/validate", `{"productId":"ghost","quantity":1}`, ""))
	decodeBody(t, resp, &res)
	if res.Valid || res.Error != "Product not found" {
		t.Fatalf("unknown product: %+v", res)
	}

	if _, err := db.Exec(`UPDATE products SET active=0 WHERE id='tpl-runbook'`); err != nil {
		t.Fatal(err)
	}
	resp, _ = app.Test(jsonReq("POST", "/api/v1/cart/validate", `{"productId":"tpl-runbook","quantity":1}`, ""))
	decodeBody(t, resp, &res)
	if res.Valid || res.Error != "Product is no longer available" {
		t.Fatalf("inactive product: %+v", res)
	}

	resp, _ = app.Test(jsonReq("POST", "/api/v1/cart/validate", `{"productId":"crs-structured-101","quantity":99}`, ""))
	decodeBody(t, resp, &res)
	if res.Valid || res.Error != "Maximum quantity is 10 per item" {
		t.Fatalf("over-cap quantity: %+v", res)
	}
}

// Merge scenario: the account cart already holds 8 of a product, the guest
// blob brings 5 more of it plus a product the account cart lacks.
func TestGuestCartMergeOnLogin(t *testing.T) {
	app, db := newTestApp(t)

	// Pre-load the account cart directly, as a previous signed-in visit would.
	carts := repos.NewCartRepo(db)
	cartID, err := carts.EnsureForUser("u-alice", "old-session")
	if err != nil {
		t.Fatal(err)
	}
	if err := carts.UpsertItem(cartID, "crs-structured-101", "", 8, 49); err != nil {
		t.Fatal(err)
	}
	before, err := carts.Items(cartID)
	if err != nil {
		t.Fatal(err)
	}
	existingLineID := before[0].ID

	guest := `{"items":[
		{"productId":"crs-structured-101","quantity":5},
		{"productId":"tpl-runbook","quantity":2},
		{"productId":"ghost-product","quantity":1}
	]}`
	sid := login(t, app, "alice@logbloga.test", guest)

	var cv cartResp
	resp, err := app.Test(jsonReq("GET", "/api/v1/cart", "", sid))
	if err != nil {
		t.Fatal(err)
	}
	decodeBody(t, resp, &cv)

	if len(cv.Items) != 2 {
		t.Fatalf("want 2 lines after merge, got %+v", cv.Items)
	}
	byProduct := map[string]repos.CartItem{}
	for _, it := range cv.Items {
		byProduct[it.ProductID] = it
	}

	// 8 + 5 caps at 10 and keeps the existing line, not a replacement row.
	course := byProduct["crs-structured-101"]
	if course.Qty != 10 {
		t.Fatalf("want capped qty 10, got %d", course.Qty)
	}
	if course.ID != existingLineID {
		t.Fatalf("existing cart line replaced: %s != %s", course.ID, existingLineID)
	}

	// The guest-only product was inserted; the unknown one dropped.
	if byProduct["tpl-runbook"].Qty != 2 {
		t.Fatalf("guest-only line missing: %+v", cv.Items)
	}
}

// A malformed guest blob must not block the login.
func TestLoginSurvivesBadGuestCart(t *testing.T) {
	app, _ := newTestApp(t)
	sid := login(t, app, "bob@logbloga.test", `{"items": [{"broken"`)

	var cv cartResp
	resp, err := app.Test(jsonReq("GET", "/api/v1/cart", "", sid))
	if err != nil {
		t.Fatal(err)
	}
	decodeBody(t, resp, &cv)
	if len(cv.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", cv.Items)
	}
}

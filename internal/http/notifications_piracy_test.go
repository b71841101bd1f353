package handlers_test

import (
	"net/http"
	"testing"

	"logbloga/internal/domain"
	"logbloga/internal/repos"
)

func TestNotificationsListAndMarkRead(t *testing.T) {
	app, db := newTestApp(t)

	notes := repos.NewNotificationRepo(db)
	id1, err := notes.Insert("u-alice", "order_created", "Order received", "Your order is awaiting payment.")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := notes.Insert("u-alice", "order_completed", "Purchase complete", "Your content is ready."); err != nil {
		t.Fatal(err)
	}
	// Someone else's notification never shows up.
	if _, err := notes.Insert("u-bob", "order_created", "Order received", "body"); err != nil {
		t.Fatal(err)
	}

	sid := login(t, app, "alice@logbloga.test", "")

	var body struct {
		Notifications []domain.Notification `json:"notifications"`
		Unread        int                   `json:"unread"`
	}
	resp, _ := app.Test(jsonReq("GET", "/api/v1/notifications", "", sid))
	decodeBody(t, resp, &body)
	if len(body.Notifications) != 2 || body.Unread != 2 {
		t.Fatalf("bad listing: %d notes, %d unread", len(body.Notifications), body.Unread)
	}

	resp, _ = app.Test(jsonReq("POST", "/api/v1/notifications/"+id1+"/read", "", sid))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark read failed: %d", resp.StatusCode)
	}
	resp, _ = app.Test(jsonReq("GET", "/api/v1/notifications", "", sid))
	decodeBody(t, resp, &body)
	if body.Unread != 1 {
		t.Fatalf("want 1 unread after mark, got %d", body.Unread)
	}

	// Bob still has his single unread, untouched by Alice's actions.
	bobSID := login(t, app, "bob@logbloga.test", "")
	resp, _ = app.Test(jsonReq("GET", "/api/v1/notifications", "", bobSID))
	decodeBody(t, resp, &body)
	if len(body.Notifications) != 1 || body.Unread != 1 {
		t.Fatalf("cross-user leak: %d notes, %d unread", len(body.Notifications), body.Unread)
	}
}

func TestPiracyReportAPI(t *testing.T) {
	app, _ := newTestApp(t)

	// Anonymous tip with an email.
	resp, _ := app.Test(jsonReq("POST", "/api/v1/piracy-reports",
		`{"product_id":"crs-structured-101","url":"https://mirror.example.org/leak","email":"tipster@example.com"}`, ""))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("want 201, got %d", resp.StatusCode)
	}
	var created map[string]string
	decodeBody(t, resp, &created)
	if created["report_id"] == "" {
		t.Fatal("no report id returned")
	}

	// Non-http URL is rejected.
	resp, _ = app.Test(jsonReq("POST", "/api/v1/piracy-reports",
		`{"product_id":"crs-structured-101","url":"ftp://mirror.example.org/leak"}`, ""))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400 for bad url, got %d", resp.StatusCode)
	}

	// Unknown product is rejected.
	resp, _ = app.Test(jsonReq("POST", "/api/v1/piracy-reports",
		`{"product_id":"ghost","url":"https://mirror.example.org/leak"}`, ""))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400 for unknown product, got %d", resp.StatusCode)
	}
}

func TestRecommendationsForProduct(t *testing.T) {
	app, db := newTestApp(t)

	// Seed one completed order pairing the course with the template so
	// co-purchase data exists.
	orders := repos.NewOrderRepo(db)
	err := orders.Create(repos.OrderRow{
		ID: "ord-rec", UserID: "u-bob", SessionID: "s", Status: domain.StatusCompleted,
		Subtotal: 68, Total: 68,
	}, []repos.OrderItemRow{
		{OrderID: "ord-rec", ProductID: "crs-structured-101", Qty: 1, UnitPrice: 49, TotalPrice: 49},
		{OrderID: "ord-rec", ProductID: "tpl-runbook", Qty: 1, UnitPrice: 19, TotalPrice: 19},
	})
	if err != nil {
		t.Fatal(err)
	}

	resp, _ := app.Test(jsonReq("GET", "/api/v1/products/crs-structured-101/recommendations", "", ""))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var body struct {
		Recommendations []domain.Product `json:"recommendations"`
	}
	decodeBody(t, resp, &body)
	if len(body.Recommendations) == 0 {
		t.Fatal("expected at least one recommendation")
	}
	for _, p := range body.Recommendations {
		if p.ID == "crs-structured-101" {
			t.Fatal("a product must not recommend itself")
		}
	}
}

package services_test

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"logbloga/internal/domain"
	"logbloga/internal/mail"
	"logbloga/internal/repos"
	"logbloga/internal/services"
)

// memdb opens the seeded in-memory database the app itself boots with.
func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func orderStack(db *sqlx.DB) (*services.CartService, *services.OrderService, *repos.OrderRepo) {
	cartRepo := repos.NewCartRepo(db)
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	couponRepo := repos.NewCouponRepo(db)
	licSvc := services.NewLicenseService(repos.NewLicenseRepo(db), repos.NewAccessRepo(db))
	noteSvc := services.NewNotificationService(repos.NewNotificationRepo(db))

	cartSvc := services.NewCartService(cartRepo, prodRepo)
	orderSvc := services.NewOrderService(cartRepo, orderRepo, couponRepo, licSvc, noteSvc, mail.Nop{}, nil, "http://localhost:8080")
	return cartSvc, orderSvc, orderRepo
}

func alice() *domain.User {
	return &domain.User{ID: "u-alice", Email: "alice@logbloga.test", Name: "Alice", Role: "USER"}
}

func TestCalculateTotals(t *testing.T) {
	items := []repos.CartItem{
		{ProductID: "a", Qty: 2, CurrentPrice: 49},
		{ProductID: "b", Qty: 1, CurrentPrice: 19},
	}

	tt := services.CalculateTotals(items, nil)
	if tt.Subtotal != 117 || tt.DiscountAmount != 0 || tt.TaxAmount != 0 || tt.Total != 117 {
		t.Fatalf("plain totals wrong: %+v", tt)
	}

	tt = services.CalculateTotals(items, &domain.Coupon{Type: "percent", Value: 10})
	if tt.DiscountAmount != 11.7 || tt.Total != 105.3 {
		t.Fatalf("percent totals wrong: %+v", tt)
	}

	tt = services.CalculateTotals(items, &domain.Coupon{Type: "fixed", Value: 25})
	if tt.DiscountAmount != 25 || tt.Total != 92 {
		t.Fatalf("fixed totals wrong: %+v", tt)
	}

	// Oversized fixed coupon clamps to the subtotal, never a negative total.
	tt = services.CalculateTotals(items, &domain.Coupon{Type: "fixed", Value: 500})
	if tt.DiscountAmount != 117 || tt.Total != 0 {
		t.Fatalf("clamped totals wrong: %+v", tt)
	}
}

func TestFingerprintIsOrderInsensitive(t *testing.T) {
	a := []repos.CartItem{
		{ProductID: "tpl-runbook", Qty: 1},
		{ProductID: "crs-structured-101", Qty: 2},
	}
	b := []repos.CartItem{
		{ProductID: "crs-structured-101", Qty: 2},
		{ProductID: "tpl-runbook", Qty: 1},
	}
	if services.Fingerprint(a) != services.Fingerprint(b) {
		t.Fatal("fingerprint should not depend on item order")
	}

	c := []repos.CartItem{
		{ProductID: "crs-structured-101", Qty: 3},
		{ProductID: "tpl-runbook", Qty: 1},
	}
	if services.Fingerprint(a) == services.Fingerprint(c) {
		t.Fatal("quantity change must change the fingerprint")
	}
}

func TestCreateOrResume(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, _ := orderStack(db)
	u := alice()
	sid := "sess-alice"

	// Empty cart refuses checkout.
	if _, _, _, err := orderSvc.CreateOrResume(u, sid, ""); err != services.ErrCartEmpty {
		t.Fatalf("want ErrCartEmpty, got %v", err)
	}

	if err := cartSvc.Add(u.ID, sid, "crs-structured-101", "", 2); err != nil {
		t.Fatal(err)
	}
	if err := cartSvc.Add(u.ID, sid, "tpl-runbook", "", 1); err != nil {
		t.Fatal(err)
	}

	// Unknown coupon is a validation error, not a silent discount of zero.
	if _, _, _, err := orderSvc.CreateOrResume(u, sid, "NOPE99"); err == nil {
		t.Fatal("want coupon error")
	} else if msg, ok := services.IsValidation(err); !ok || msg != "Invalid or expired coupon code" {
		t.Fatalf("wrong coupon error: %v", err)
	}
	// Inactive coupons behave like unknown ones.
	if _, _, _, err := orderSvc.CreateOrResume(u, sid, "OLDTIMES"); err == nil {
		t.Fatal("inactive coupon should be rejected")
	}

	order, items, resumed, err := orderSvc.CreateOrResume(u, sid, "WELCOME10")
	if err != nil {
		t.Fatal(err)
	}
	if resumed {
		t.Fatal("first checkout should create, not resume")
	}
	if len(items) != 2 {
		t.Fatalf("want 2 order lines, got %d", len(items))
	}
	// 2x49 + 19 = 117, minus 10% = 105.30
	if order.Subtotal != 117 || order.Total != 105.3 {
		t.Fatalf("order totals wrong: %+v", order)
	}
	if order.Status != domain.StatusPending {
		t.Fatalf("want pending, got %s", order.Status)
	}

	// Same cart again resumes the same order.
	again, _, resumed, err := orderSvc.CreateOrResume(u, sid, "WELCOME10")
	if err != nil {
		t.Fatal(err)
	}
	if !resumed || again.ID != order.ID {
		t.Fatalf("want resume of %s, got %s (resumed=%v)", order.ID, again.ID, resumed)
	}
	if again.Total != 105.3 {
		t.Fatalf("unchanged cart should keep totals, got %v", again.Total)
	}

	// Changed cart gets a fresh order.
	if err := cartSvc.Add(u.ID, sid, "pkg-observability", "", 1); err != nil {
		t.Fatal(err)
	}
	fresh, _, resumed, err := orderSvc.CreateOrResume(u, sid, "WELCOME10")
	if err != nil {
		t.Fatal(err)
	}
	if resumed || fresh.ID == order.ID {
		t.Fatalf("changed cart must create a new order, got resumed=%v id=%s", resumed, fresh.ID)
	}
}

func TestResumeRecomputesOnPriceDrift(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, _ := orderStack(db)
	u := alice()
	sid := "sess-drift"

	if err := cartSvc.Add(u.ID, sid, "tpl-runbook", "", 1); err != nil {
		t.Fatal(err)
	}
	order, _, _, err := orderSvc.CreateOrResume(u, sid, "")
	if err != nil {
		t.Fatal(err)
	}
	if order.Total != 19 {
		t.Fatalf("want 19.00, got %v", order.Total)
	}

	// Catalog price moves while the checkout sits idle.
	if _, err := db.Exec(`UPDATE products SET price=24.00 WHERE id='tpl-runbook'`); err != nil {
		t.Fatal(err)
	}

	resumedOrder, items, resumed, err := orderSvc.CreateOrResume(u, sid, "")
	if err != nil {
		t.Fatal(err)
	}
	if !resumed || resumedOrder.ID != order.ID {
		t.Fatal("same cart should still resume the pending order")
	}
	if resumedOrder.Total != 24 {
		t.Fatalf("drifted total not recomputed: %v", resumedOrder.Total)
	}
	if len(items) != 1 || items[0].UnitPrice != 24 {
		t.Fatalf("line snapshot not rewritten: %+v", items)
	}
}

func TestResumeSwitchesCoupon(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, orderRepo := orderStack(db)
	u := alice()
	sid := "sess-coupon-switch"

	if err := cartSvc.Add(u.ID, sid, "tpl-runbook", "", 1); err != nil {
		t.Fatal(err)
	}
	order, _, _, err := orderSvc.CreateOrResume(u, sid, "WELCOME10")
	if err != nil {
		t.Fatal(err)
	}
	if order.Total != 17.1 || order.CouponCode != "WELCOME10" {
		t.Fatalf("want 17.10/WELCOME10, got %v/%q", order.Total, order.CouponCode)
	}

	// Same cart, different coupon: the pending order resumes with the new
	// code and discount stored together.
	resumedOrder, _, resumed, err := orderSvc.CreateOrResume(u, sid, "LAUNCH25")
	if err != nil {
		t.Fatal(err)
	}
	if !resumed || resumedOrder.ID != order.ID {
		t.Fatal("coupon change alone must not open a second order")
	}
	if resumedOrder.Total != 0 || resumedOrder.CouponCode != "LAUNCH25" {
		t.Fatalf("want 0.00/LAUNCH25, got %v/%q", resumedOrder.Total, resumedOrder.CouponCode)
	}

	stored, _, err := orderRepo.Get(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.CouponCode != "LAUNCH25" || stored.Total != 0 {
		t.Fatalf("stored row out of step with resume: %+v", stored)
	}
}

func TestCompleteIssuesLicensesOnce(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, orderRepo := orderStack(db)
	u := alice()
	sid := "sess-complete"

	if err := cartSvc.Add(u.ID, sid, "crs-structured-101", "", 1); err != nil {
		t.Fatal(err)
	}
	if err := cartSvc.Add(u.ID, sid, "tpl-runbook", "", 2); err != nil {
		t.Fatal(err)
	}
	order, _, _, err := orderSvc.CreateOrResume(u, sid, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := orderSvc.Complete(order.ID, "pi_test_123"); err != nil {
		t.Fatal(err)
	}
	// Webhook retry: a second completion must be harmless.
	if err := orderSvc.Complete(order.ID, "pi_test_123"); err != nil {
		t.Fatal(err)
	}

	got, _, err := orderRepo.Get(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusCompleted {
		t.Fatalf("want completed, got %s", got.Status)
	}

	// One license per distinct product, quantities do not multiply licenses.
	lics, err := repos.NewLicenseRepo(db).ListByUser(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lics) != 2 {
		t.Fatalf("want 2 licenses, got %d", len(lics))
	}
	for _, l := range lics {
		if l.Status != domain.LicenseActive {
			t.Fatalf("license not active: %+v", l)
		}
	}

	// Access grants opened for both products.
	access := repos.NewAccessRepo(db)
	for _, pid := range []string{"crs-structured-101", "tpl-runbook"} {
		has, err := access.Has(u.ID, pid)
		if err != nil {
			t.Fatal(err)
		}
		if !has {
			t.Fatalf("missing access grant for %s", pid)
		}
	}

	// Paid carts are emptied.
	view, err := cartSvc.View(u.ID, sid)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("cart should be cleared after payment, got %+v", view.Items)
	}

	// The buyer got an in-app notification.
	notes, err := repos.NewNotificationRepo(db).ListByUser(u.ID, 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) < 2 { // order_created + order_completed
		t.Fatalf("want order notifications, got %d", len(notes))
	}
}

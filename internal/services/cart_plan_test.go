package services_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"logbloga/internal/domain"
	"logbloga/internal/repos"
	"logbloga/internal/services"
)

func TestParseStoredCartTolerance(t *testing.T) {
	// Malformed JSON yields an empty cart, never an error.
	sc := services.ParseStoredCart([]byte(`{"items": [{`))
	if len(sc.Items) != 0 {
		t.Fatalf("want empty cart from malformed blob, got %d items", len(sc.Items))
	}

	// Bare-array form is accepted alongside {items:[...]}.
	sc = services.ParseStoredCart([]byte(`[{"productId":"p1","quantity":2}]`))
	if len(sc.Items) != 1 || sc.Items[0].ProductID != "p1" {
		t.Fatalf("bare array not parsed: %+v", sc.Items)
	}

	// Entries with no productId or out-of-range quantity are dropped.
	sc = services.ParseStoredCart([]byte(`{"items":[
		{"productId":"p1","quantity":1},
		{"quantity":3},
		{"productId":"p2","quantity":0},
		{"productId":"p3","quantity":11},
		{"productId":"p4","quantity":10}
	]}`))
	if len(sc.Items) != 2 {
		t.Fatalf("want 2 surviving items, got %d: %+v", len(sc.Items), sc.Items)
	}
	if sc.Items[0].ProductID != "p1" || sc.Items[1].ProductID != "p4" {
		t.Fatalf("wrong survivors: %+v", sc.Items)
	}
}

func TestParseStoredCartCapsAtTwenty(t *testing.T) {
	items := make([]map[string]any, 0, 25)
	for i := 0; i < 25; i++ {
		items = append(items, map[string]any{"productId": fmt.Sprintf("p%02d", i), "quantity": 1})
	}
	blob, _ := json.Marshal(map[string]any{"items": items})

	sc := services.ParseStoredCart(blob)
	if len(sc.Items) != services.MaxGuestItems {
		t.Fatalf("want %d items, got %d", services.MaxGuestItems, len(sc.Items))
	}
	// First twenty kept, order preserved.
	if sc.Items[0].ProductID != "p00" || sc.Items[19].ProductID != "p19" {
		t.Fatalf("cap did not preserve leading order: first=%s last=%s", sc.Items[0].ProductID, sc.Items[19].ProductID)
	}
}

func TestCartTotalCoercesStringPrices(t *testing.T) {
	if got := services.CartTotal(nil); got != 0 {
		t.Fatalf("empty cart total = %v, want 0", got)
	}

	// Some clients serialize price as a string.
	sc := services.ParseStoredCart([]byte(`{"items":[
		{"productId":"p1","quantity":2,"price":"49.00"},
		{"productId":"p2","quantity":1,"price":19}
	]}`))
	got := services.CartTotal(sc.Items)
	if got < 116.99 || got > 117.01 {
		t.Fatalf("total = %v, want 117.00", got)
	}
}

func TestValidateItemMessages(t *testing.T) {
	active := &domain.Product{ID: "p1", Active: true}
	inactive := &domain.Product{ID: "p2", Active: false}

	cases := []struct {
		name string
		p    *domain.Product
		qty  int
		want string
	}{
		{"missing product", nil, 1, "Product not found"},
		{"inactive product", inactive, 1, "Product is no longer available"},
		{"zero quantity", active, 0, "Quantity must be greater than 0"},
		{"negative quantity", active, -3, "Quantity must be greater than 0"},
		{"over cap", active, 11, "Maximum quantity is 10 per item"},
		{"ok", active, 10, ""},
	}
	for _, tc := range cases {
		res := services.ValidateItem(tc.p, tc.qty)
		if tc.want == "" {
			if !res.Valid || res.Error != "" {
				t.Fatalf("%s: want valid, got %+v", tc.name, res)
			}
			continue
		}
		if res.Valid || res.Error != tc.want {
			t.Fatalf("%s: want %q, got %+v", tc.name, tc.want, res)
		}
	}
}

func TestPlanMergeSumsAndCaps(t *testing.T) {
	existing := []repos.CartItem{
		{ID: "ci-1", ProductID: "p1", VariantID: "", Qty: 8},
		{ID: "ci-2", ProductID: "p2", VariantID: "v-blue", Qty: 1},
	}
	blue := "v-blue"
	plan := services.PlanMerge(existing, []services.GuestItem{
		{ProductID: "p1", Quantity: 5},
		{ProductID: "p2", VariantID: &blue, Quantity: 2},
		{ProductID: "p2", Quantity: 1}, // no variant: distinct line from v-blue
		{ProductID: "p9", Quantity: 3},
	})
	if len(plan) != 4 {
		t.Fatalf("want 4 plan entries, got %d", len(plan))
	}

	if !plan[0].IsUpdate || plan[0].ExistingCartItemID != "ci-1" || plan[0].Quantity != 10 {
		t.Fatalf("p1 merge wrong: %+v", plan[0])
	}
	if !plan[1].IsUpdate || plan[1].ExistingCartItemID != "ci-2" || plan[1].Quantity != 3 {
		t.Fatalf("p2/v-blue merge wrong: %+v", plan[1])
	}
	if plan[2].IsUpdate || plan[2].VariantID != "" || plan[2].Quantity != 1 {
		t.Fatalf("variantless p2 should insert a new line: %+v", plan[2])
	}
	if plan[3].IsUpdate || plan[3].Quantity != 3 {
		t.Fatalf("p9 should insert: %+v", plan[3])
	}
}

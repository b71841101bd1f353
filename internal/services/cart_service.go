package services

import (
	"database/sql"
	"encoding/json"

	"logbloga/internal/domain"
	"logbloga/internal/repos"
)

// MaxGuestItems caps how many entries of a guest cart payload survive parsing.
const MaxGuestItems = 20

type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Prods: prods}
}

// GuestItem is one entry of a browser-held guest cart. Prices may arrive as
// JSON strings; domain.Price coerces them.
type GuestItem struct {
	ProductID string       `json:"productId"`
	VariantID *string      `json:"variantId,omitempty"`
	Quantity  int          `json:"quantity"`
	Price     domain.Price `json:"price,omitempty"`
}

type StoredCart struct {
	Items []GuestItem `json:"items"`
}

// ParseStoredCart tolerantly parses a guest cart blob. Entries with a missing
// productId or a quantity outside [1,10] are dropped, the surviving list is
// capped at MaxGuestItems preserving order, and malformed JSON yields an
// empty cart rather than an error.
func ParseStoredCart(blob []byte) StoredCart {
	var sc StoredCart
	if err := json.Unmarshal(blob, &sc); err != nil || sc.Items == nil {
		// Some clients persist a bare array instead of {items:[...]}.
		var items []GuestItem
		if err := json.Unmarshal(blob, &items); err != nil {
			return StoredCart{Items: []GuestItem{}}
		}
		sc.Items = items
	}

	kept := make([]GuestItem, 0, len(sc.Items))
	for _, it := range sc.Items {
		if it.ProductID == "" {
			continue
		}
		if it.Quantity < 1 || it.Quantity > repos.MaxQty {
			continue
		}
		kept = append(kept, it)
		if len(kept) == MaxGuestItems {
			break
		}
	}
	return StoredCart{Items: kept}
}

// CartTotal sums price x quantity over guest items; an empty cart totals 0.
func CartTotal(items []GuestItem) float64 {
	total := 0.0
	for _, it := range items {
		total += float64(it.Price) * float64(it.Quantity)
	}
	return total
}

type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateItem checks a product/quantity pair before it enters a cart.
func ValidateItem(p *domain.Product, qty int) ValidationResult {
	if p == nil {
		return ValidationResult{Valid: false, Error: "Product not found"}
	}
	if !p.Active {
		return ValidationResult{Valid: false, Error: "Product is no longer available"}
	}
	if qty <= 0 {
		return ValidationResult{Valid: false, Error: "Quantity must be greater than 0"}
	}
	if qty > repos.MaxQty {
		return ValidationResult{Valid: false, Error: "Maximum quantity is 10 per item"}
	}
	return ValidationResult{Valid: true}
}

// MergePlanItem is the decision for one guest entry: update an existing line
// (quantities summed, capped) or insert a new one.
type MergePlanItem struct {
	ProductID          string `json:"productId"`
	VariantID          string `json:"variantId,omitempty"`
	Quantity           int    `json:"quantity"`
	IsUpdate           bool   `json:"isUpdate"`
	ExistingCartItemID string `json:"existingCartItemId,omitempty"`
}

// PlanMerge pairs each guest item with an existing cart line on exact
// (productId, variantId) match; a missing variant and a concrete variant are
// distinct keys. Quantities are capped at the per-line maximum.
func PlanMerge(existing []repos.CartItem, guest []GuestItem) []MergePlanItem {
	plan := make([]MergePlanItem, 0, len(guest))
	for _, g := range guest {
		variant := ""
		if g.VariantID != nil {
			variant = *g.VariantID
		}

		var match *repos.CartItem
		for i := range existing {
			if existing[i].ProductID == g.ProductID && existing[i].VariantID == variant {
				match = &existing[i]
				break
			}
		}

		if match != nil {
			qty := match.Qty + g.Quantity
			if qty > repos.MaxQty {
				qty = repos.MaxQty
			}
			plan = append(plan, MergePlanItem{
				ProductID:          g.ProductID,
				VariantID:          variant,
				Quantity:           qty,
				IsUpdate:           true,
				ExistingCartItemID: match.ID,
			})
			continue
		}

		qty := g.Quantity
		if qty > repos.MaxQty {
			qty = repos.MaxQty
		}
		plan = append(plan, MergePlanItem{
			ProductID: g.ProductID,
			VariantID: variant,
			Quantity:  qty,
		})
	}
	return plan
}

// CartID resolves which cart a request operates on: the user's cart when
// logged in, otherwise the anonymous session cart.
func (s *CartService) CartID(userID, sessionID string) (string, error) {
	if userID != "" {
		return s.Carts.EnsureForUser(userID, sessionID)
	}
	return s.Carts.EnsureCart(sessionID)
}

func (s *CartService) Add(userID, sessionID, productID, variantID string, qty int) error {
	p, err := s.Prods.Get(productID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrValidation{Msg: "Product not found"}
		}
		return err
	}
	if res := ValidateItem(&p, qty); !res.Valid {
		return ErrValidation{Msg: res.Error}
	}
	cartID, err := s.CartID(userID, sessionID)
	if err != nil {
		return err
	}
	return s.Carts.UpsertItem(cartID, productID, variantID, qty, p.Price)
}

func (s *CartService) SetQty(userID, sessionID, productID, variantID string, qty int) error {
	cartID, err := s.CartID(userID, sessionID)
	if err != nil {
		return err
	}
	if qty <= 0 {
		return s.Carts.RemoveItem(cartID, productID, variantID)
	}
	return s.Carts.SetQty(cartID, productID, variantID, qty)
}

func (s *CartService) Remove(userID, sessionID, productID, variantID string) error {
	cartID, err := s.CartID(userID, sessionID)
	if err != nil {
		return err
	}
	return s.Carts.RemoveItem(cartID, productID, variantID)
}

type CartView struct {
	Items []repos.CartItem `json:"items"`
	Count int              `json:"count"`
	Total float64          `json:"total"`
}

func (s *CartService) View(userID, sessionID string) (CartView, error) {
	cartID, err := s.CartID(userID, sessionID)
	if err != nil {
		return CartView{}, err
	}
	items, err := s.Carts.Items(cartID)
	if err != nil {
		return CartView{}, err
	}
	view := CartView{Items: items}
	for _, it := range items {
		view.Count += it.Qty
		view.Total += it.Subtotal
	}
	return view, nil
}

// MergeGuest reconciles a guest cart blob into the user's cart. The whole
// plan is applied atomically; guest entries naming unknown or inactive
// products are dropped. Returns how many lines were merged.
func (s *CartService) MergeGuest(userID, sessionID string, blob []byte) (int, error) {
	stored := ParseStoredCart(blob)
	if len(stored.Items) == 0 {
		return 0, nil
	}

	cartID, err := s.CartID(userID, sessionID)
	if err != nil {
		return 0, err
	}
	existing, err := s.Carts.Items(cartID)
	if err != nil {
		return 0, err
	}

	plan := PlanMerge(existing, stored.Items)
	ops := make([]repos.MergeOp, 0, len(plan))
	for _, pl := range plan {
		p, err := s.Prods.Get(pl.ProductID)
		if err != nil || !p.Active {
			continue
		}
		ops = append(ops, repos.MergeOp{
			ExistingItemID: pl.ExistingCartItemID,
			ProductID:      pl.ProductID,
			VariantID:      pl.VariantID,
			Qty:            pl.Quantity,
			Price:          p.Price,
		})
	}
	if err := s.Carts.ApplyMergePlan(cartID, ops); err != nil {
		return 0, err
	}
	return len(ops), nil
}

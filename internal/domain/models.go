package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Price accepts both JSON numbers and numeric strings. Client carts persisted
// in browser storage sometimes serialize prices as strings.
type Price float64

func (p *Price) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if len(s) >= 2 && s[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return err
		}
		*p = Price(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*p = Price(f)
	return nil
}

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}

type Product struct {
	ID          string  `db:"id" json:"id"`
	Slug        string  `db:"slug" json:"slug"`
	CategoryID  string  `db:"category_id" json:"category_id"`
	Title       string  `db:"title" json:"title"`
	Description string  `db:"description" json:"description"`
	ProductType string  `db:"product_type" json:"product_type"` // individual | package
	Price       float64 `db:"price" json:"price"`
	ImagesJSON  string  `db:"images_json" json:"images_json"`
	LevelsJSON  string  `db:"levels_json" json:"levels_json"` // package levels, opaque JSON
	ContentMD   string  `db:"content_md" json:"-"`
	Active      bool    `db:"active" json:"active"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
	UpdatedAt   string  `db:"updated_at" json:"updated_at,omitempty"`
}

type Coupon struct {
	ID        string  `db:"id" json:"id"`
	Code      string  `db:"code" json:"code"`
	Type      string  `db:"type" json:"type"` // fixed | percent
	Value     float64 `db:"value" json:"value"`
	Active    bool    `db:"active" json:"active"`
	ExpiresAt string  `db:"expires_at" json:"expires_at,omitempty"`
}

// Order statuses. Items are immutable once an order reaches StatusCompleted.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
)

type OrderTotals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	Total          float64 `json:"total"`
}

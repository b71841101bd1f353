package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"logbloga/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type OrderRow struct {
	ID                  string  `db:"id" json:"id"`
	UserID              string  `db:"user_id" json:"user_id,omitempty"`
	SessionID           string  `db:"session_id" json:"-"`
	CouponCode          string  `db:"coupon_code" json:"coupon_code,omitempty"`
	Subtotal            float64 `db:"subtotal" json:"subtotal"`
	Discount            float64 `db:"discount" json:"discount"`
	Tax                 float64 `db:"tax" json:"tax"`
	Total               float64 `db:"total" json:"total"`
	Status              string  `db:"status" json:"status"`
	Fingerprint         string  `db:"fingerprint" json:"-"`
	StripeSessionID     string  `db:"stripe_session_id" json:"-"`
	StripePaymentIntent string  `db:"stripe_payment_intent" json:"-"`
	BillingName         string  `db:"billing_name" json:"billing_name,omitempty"`
	BillingEmail        string  `db:"billing_email" json:"billing_email,omitempty"`
	CreatedAt           string  `db:"created_at" json:"created_at"`
}

type OrderItemRow struct {
	OrderID    string  `db:"order_id" json:"-"`
	ProductID  string  `db:"product_id" json:"product_id"`
	VariantID  string  `db:"variant_id" json:"variant_id,omitempty"`
	Title      string  `db:"title" json:"title"`
	Qty        int     `db:"qty" json:"quantity"`
	UnitPrice  float64 `db:"unit_price" json:"unit_price"`
	TotalPrice float64 `db:"total_price" json:"total_price"`
}

const orderCols = `
  id, COALESCE(user_id,'') AS user_id, COALESCE(session_id,'') AS session_id,
  COALESCE(coupon_code,'') AS coupon_code, subtotal, discount, tax, total, status,
  fingerprint, COALESCE(stripe_session_id,'') AS stripe_session_id,
  COALESCE(stripe_payment_intent,'') AS stripe_payment_intent,
  COALESCE(billing_name,'') AS billing_name, COALESCE(billing_email,'') AS billing_email,
  created_at`

// Create inserts the order header plus its item snapshot in one transaction.
func (r *OrderRepo) Create(o OrderRow, items []OrderItemRow) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO orders
	    (id, user_id, session_id, coupon_code, subtotal, discount, tax, total, status, fingerprint, billing_name, billing_email, created_at)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, o.ID, nullable(o.UserID), o.SessionID, o.CouponCode, o.Subtotal, o.Discount, o.Tax, o.Total, o.Status, o.Fingerprint, o.BillingName, o.BillingEmail); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(`
		  INSERT INTO order_items(order_id, product_id, variant_id, qty, unit_price, total_price)
		  VALUES(?,?,?,?,?,?)
		`, o.ID, it.ProductID, it.VariantID, it.Qty, it.UnitPrice, it.TotalPrice); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *OrderRepo) Get(orderID string) (OrderRow, []OrderItemRow, error) {
	var o OrderRow
	if err := r.db.Get(&o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, orderID); err != nil {
		return OrderRow{}, nil, err
	}

	items, err := r.ItemsOf(orderID)
	if err != nil {
		return OrderRow{}, nil, err
	}
	return o, items, nil
}

func (r *OrderRepo) GetByStripeSession(stripeSessionID string) (OrderRow, error) {
	var o OrderRow
	err := r.db.Get(&o, `SELECT `+orderCols+` FROM orders WHERE stripe_session_id = ?`, stripeSessionID)
	return o, err
}

func (r *OrderRepo) ItemsOf(orderID string) ([]OrderItemRow, error) {
	items := []OrderItemRow{}
	err := r.db.Select(&items, `
	  SELECT oi.order_id, oi.product_id, oi.variant_id, p.title, oi.qty, oi.unit_price, oi.total_price
	  FROM order_items oi
	  JOIN products p ON p.id = oi.product_id
	  WHERE oi.order_id = ?
	  ORDER BY p.title
	`, orderID)
	return items, err
}

// PendingByFingerprint finds the user's most recent pending order whose cart
// fingerprint matches, so an interrupted checkout can be resumed.
func (r *OrderRepo) PendingByFingerprint(userID, fingerprint string) (OrderRow, error) {
	var o OrderRow
	err := r.db.Get(&o, `
	  SELECT `+orderCols+`
	  FROM orders
	  WHERE user_id = ? AND status = ? AND fingerprint = ?
	  ORDER BY datetime(created_at) DESC
	  LIMIT 1
	`, userID, domain.StatusPending, fingerprint)
	return o, err
}

// UpdateTotals refreshes totals, the applied coupon, and the item snapshot of
// a pending order whose pricing drifted since it was created. The coupon code
// is rewritten together with the discount so the two never disagree.
func (r *OrderRepo) UpdateTotals(orderID, couponCode string, t domain.OrderTotals, items []OrderItemRow) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  UPDATE orders SET coupon_code=?, subtotal=?, discount=?, tax=?, total=?, updated_at=CURRENT_TIMESTAMP
	  WHERE id=? AND status=?
	`, couponCode, t.Subtotal, t.DiscountAmount, t.TaxAmount, t.Total, orderID, domain.StatusPending); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM order_items WHERE order_id=?`, orderID); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(`
		  INSERT INTO order_items(order_id, product_id, variant_id, qty, unit_price, total_price)
		  VALUES(?,?,?,?,?,?)
		`, orderID, it.ProductID, it.VariantID, it.Qty, it.UnitPrice, it.TotalPrice); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *OrderRepo) UpdateStatus(id, status string) error {
	_, err := r.db.Exec(`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	return err
}

func (r *OrderRepo) SetStripeRefs(id, sessionID, paymentIntent string) error {
	_, err := r.db.Exec(`
	  UPDATE orders SET stripe_session_id=?, stripe_payment_intent=?, updated_at=CURRENT_TIMESTAMP
	  WHERE id=?
	`, sessionID, paymentIntent, id)
	return err
}

func (r *OrderRepo) ListByUser(userID string) ([]OrderRow, error) {
	out := []OrderRow{}
	err := r.db.Select(&out, `
	  SELECT `+orderCols+` FROM orders
	  WHERE user_id = ?
	  ORDER BY datetime(created_at) DESC
	`, userID)
	return out, err
}

func (r *OrderRepo) ListLatest(limit int) ([]OrderRow, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []OrderRow{}
	err := r.db.Select(&out, `
	  SELECT `+orderCols+` FROM orders
	  ORDER BY datetime(created_at) DESC
	  LIMIT ?
	`, limit)
	return out, err
}

func nullable(s string) any {
	if s == "" {
		return sql.NullString{}
	}
	return s
}

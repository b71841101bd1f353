package repos

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// MaxQty is the per-line quantity cap enforced on every write path.
const MaxQty = 10

type CartItem struct {
	ID           string  `db:"id" json:"id"`
	ProductID    string  `db:"product_id" json:"product_id"`
	VariantID    string  `db:"variant_id" json:"variant_id,omitempty"` // '' means no variant
	Qty          int     `db:"qty" json:"quantity"`
	PriceAtAdd   float64 `db:"price_at_add" json:"price_at_add"`
	CurrentPrice float64 `db:"current_price" json:"current_price"` // live catalog price, for drift checks
	Title        string  `db:"title" json:"title"`
	Subtotal     float64 `db:"subtotal" json:"subtotal"`
}

func (r *CartRepo) EnsureCart(sessionID string) (string, error) {
	var cartID string
	if err := r.db.Get(&cartID, `SELECT id FROM carts WHERE session_id = ?`, sessionID); err == nil {
		return cartID, nil
	}
	_, err := r.db.Exec(`INSERT INTO carts(id,session_id,updated_at) VALUES(?,?,?)`,
		sessionID, sessionID, time.Now().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// ForUser returns the user's cart id, sql.ErrNoRows when the user has none.
func (r *CartRepo) ForUser(userID string) (string, error) {
	var cartID string
	err := r.db.Get(&cartID, `SELECT id FROM carts WHERE user_id=? ORDER BY updated_at DESC LIMIT 1`, userID)
	return cartID, err
}

// EnsureForUser returns the user's cart, claiming the session cart when the
// user does not have one yet.
func (r *CartRepo) EnsureForUser(userID, sessionID string) (string, error) {
	if id, err := r.ForUser(userID); err == nil {
		return id, nil
	}
	id, err := r.EnsureCart(sessionID)
	if err != nil {
		return "", err
	}
	_, err = r.db.Exec(`UPDATE carts SET user_id=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, userID, id)
	return id, err
}

func (r *CartRepo) UpsertItem(cartID, productID, variantID string, qty int, price float64) error {
	if qty > MaxQty {
		qty = MaxQty
	}
	_, err := r.db.Exec(`
		INSERT INTO cart_items(id,cart_id,product_id,variant_id,qty,price_at_add,created_at)
		VALUES(?,?,?,?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(cart_id,product_id,variant_id) DO UPDATE
		SET qty = MIN(10, cart_items.qty + excluded.qty), updated_at = CURRENT_TIMESTAMP
	`, uuid.NewString(), cartID, productID, variantID, qty, price)
	return err
}

func (r *CartRepo) SetQty(cartID, productID, variantID string, qty int) error {
	if qty > MaxQty {
		qty = MaxQty
	}
	_, err := r.db.Exec(`
		UPDATE cart_items SET qty = ?, updated_at = CURRENT_TIMESTAMP
		WHERE cart_id = ? AND product_id = ? AND variant_id = ?
	`, qty, cartID, productID, variantID)
	return err
}

func (r *CartRepo) RemoveItem(cartID, productID, variantID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id=? AND product_id=? AND variant_id=?`,
		cartID, productID, variantID)
	return err
}

func (r *CartRepo) Items(cartID string) ([]CartItem, error) {
	out := []CartItem{}
	err := r.db.Select(&out, `
	  SELECT ci.id, ci.product_id, ci.variant_id, ci.qty, ci.price_at_add,
	         p.price AS current_price, p.title,
	         (ci.qty*ci.price_at_add) AS subtotal
	  FROM cart_items ci JOIN products p ON p.id=ci.product_id
	  WHERE ci.cart_id = ?
	  ORDER BY ci.created_at
	`, cartID)
	return out, err
}

func (r *CartRepo) Clear(cartID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}

// MergeOp is one step of a merge plan: update an existing line or insert a
// new one. The whole plan is applied in a single transaction so an
// interrupted merge never leaves the cart half-merged.
type MergeOp struct {
	ExistingItemID string // non-empty: update this row
	ProductID      string
	VariantID      string
	Qty            int
	Price          float64
}

func (r *CartRepo) ApplyMergePlan(cartID string, ops []MergeOp) error {
	if len(ops) == 0 {
		return nil
	}
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, op := range ops {
		qty := op.Qty
		if qty > MaxQty {
			qty = MaxQty
		}
		if op.ExistingItemID != "" {
			if _, err := tx.Exec(`
				UPDATE cart_items SET qty = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
			`, qty, op.ExistingItemID); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.Exec(`
			INSERT INTO cart_items(id,cart_id,product_id,variant_id,qty,price_at_add,created_at)
			VALUES(?,?,?,?,?,?,CURRENT_TIMESTAMP)
			ON CONFLICT(cart_id,product_id,variant_id) DO UPDATE
			SET qty = MIN(10, cart_items.qty + excluded.qty), updated_at = CURRENT_TIMESTAMP
		`, uuid.NewString(), cartID, op.ProductID, op.VariantID, qty, op.Price); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`UPDATE carts SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, cartID); err != nil {
		return err
	}
	return tx.Commit()
}

// MergeForLogin folds the anonymous session cart into the user's cart and
// links the session to the user. Runs in one transaction.
func (r *CartRepo) MergeForLogin(userID, sid string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var anonID, userCartID sql.NullString

	if err := tx.Get(&anonID, `SELECT id FROM carts WHERE session_id=? AND (user_id IS NULL OR user_id='')`, sid); err != nil && err != sql.ErrNoRows {
		return err
	}
	if err := tx.Get(&userCartID, `SELECT id FROM carts WHERE user_id=? ORDER BY updated_at DESC LIMIT 1`, userID); err != nil && err != sql.ErrNoRows {
		return err
	}

	// No anon cart: just link the session row to the user.
	if !anonID.Valid {
		_, _ = tx.Exec(`UPDATE sessions SET user_id=?, last_seen=CURRENT_TIMESTAMP WHERE id=?`, userID, sid)
		return tx.Commit()
	}

	// User has no cart yet: convert the anon cart into the user cart.
	if !userCartID.Valid {
		if _, err := tx.Exec(`UPDATE carts SET user_id=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, userID, anonID.String); err != nil {
			return err
		}
		_, _ = tx.Exec(`UPDATE sessions SET user_id=?, last_seen=CURRENT_TIMESTAMP WHERE id=?`, userID, sid)
		return tx.Commit()
	}

	type line struct {
		ProductID  string  `db:"product_id"`
		VariantID  string  `db:"variant_id"`
		Qty        int     `db:"qty"`
		PriceAtAdd float64 `db:"price_at_add"`
	}
	var lines []line
	if err := tx.Select(&lines, `SELECT product_id, variant_id, qty, price_at_add FROM cart_items WHERE cart_id=?`, anonID.String); err != nil {
		return err
	}

	for _, it := range lines {
		_, err := tx.Exec(`
			INSERT INTO cart_items(id, cart_id, product_id, variant_id, qty, price_at_add, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			ON CONFLICT(cart_id, product_id, variant_id) DO UPDATE SET
			  qty = MIN(10, cart_items.qty + excluded.qty),
			  updated_at = CURRENT_TIMESTAMP
		`, uuid.NewString(), userCartID.String, it.ProductID, it.VariantID, it.Qty, it.PriceAtAdd)
		if err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`DELETE FROM carts WHERE id=?`, anonID.String); err != nil {
		return err
	}
	_, _ = tx.Exec(`UPDATE sessions SET user_id=?, last_seen=CURRENT_TIMESTAMP WHERE id=?`, userID, sid)

	return tx.Commit()
}

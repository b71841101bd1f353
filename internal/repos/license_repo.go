package repos

import (
	"github.com/jmoiron/sqlx"

	"logbloga/internal/domain"
)

type LicenseRepo struct{ db *sqlx.DB }

func NewLicenseRepo(db *sqlx.DB) *LicenseRepo { return &LicenseRepo{db: db} }

const licenseCols = `
  id, license_key, user_id, order_id, product_id, status,
  issued_at, COALESCE(revoked_at,'') AS revoked_at`

func (r *LicenseRepo) Insert(l domain.License) error {
	_, err := r.db.Exec(`
	  INSERT INTO licenses(id, license_key, user_id, order_id, product_id, status, issued_at)
	  VALUES(?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, l.ID, l.Key, l.UserID, l.OrderID, l.ProductID, l.Status)
	return err
}

func (r *LicenseRepo) ByID(id string) (domain.License, error) {
	var l domain.License
	err := r.db.Get(&l, `SELECT `+licenseCols+` FROM licenses WHERE id = ?`, id)
	return l, err
}

func (r *LicenseRepo) ByKey(key string) (domain.License, error) {
	var l domain.License
	err := r.db.Get(&l, `SELECT `+licenseCols+` FROM licenses WHERE license_key = ?`, key)
	return l, err
}

func (r *LicenseRepo) ListByUser(userID string) ([]domain.License, error) {
	out := []domain.License{}
	err := r.db.Select(&out, `
	  SELECT `+licenseCols+` FROM licenses
	  WHERE user_id = ?
	  ORDER BY datetime(issued_at) DESC
	`, userID)
	return out, err
}

func (r *LicenseRepo) ExistsForOrderProduct(orderID, productID string) (bool, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM licenses WHERE order_id=? AND product_id=?`, orderID, productID)
	return n > 0, err
}

// Revoke flips status; license rows are kept for audit.
func (r *LicenseRepo) Revoke(id string) error {
	_, err := r.db.Exec(`
	  UPDATE licenses SET status=?, revoked_at=CURRENT_TIMESTAMP
	  WHERE id=? AND status=?
	`, domain.LicenseRevoked, id, domain.LicenseActive)
	return err
}

func (r *LicenseRepo) CountByStatus() (map[string]int, error) {
	rows := []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}{}
	if err := r.db.Select(&rows, `SELECT status, COUNT(*) AS n FROM licenses GROUP BY status`); err != nil {
		return nil, err
	}
	out := map[string]int{}
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

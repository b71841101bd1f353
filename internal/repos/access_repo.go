package repos

import "github.com/jmoiron/sqlx"

// AccessRepo tracks which users may read which product content. Grants come
// from license issuance and are checked before serving rendered content.
type AccessRepo struct{ db *sqlx.DB }

func NewAccessRepo(db *sqlx.DB) *AccessRepo { return &AccessRepo{db: db} }

func (r *AccessRepo) Grant(userID, productID string) error {
	_, err := r.db.Exec(`
	  INSERT INTO access_grants(user_id, product_id, granted_at)
	  VALUES(?,?,CURRENT_TIMESTAMP)
	  ON CONFLICT(user_id, product_id) DO NOTHING
	`, userID, productID)
	return err
}

func (r *AccessRepo) Has(userID, productID string) (bool, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM access_grants WHERE user_id=? AND product_id=?`, userID, productID)
	return n > 0, err
}

func (r *AccessRepo) ProductsOf(userID string) ([]string, error) {
	out := []string{}
	err := r.db.Select(&out, `
	  SELECT product_id FROM access_grants WHERE user_id=? ORDER BY datetime(granted_at) DESC
	`, userID)
	return out, err
}

func (r *AccessRepo) Revoke(userID, productID string) error {
	_, err := r.db.Exec(`DELETE FROM access_grants WHERE user_id=? AND product_id=?`, userID, productID)
	return err
}

package repos

import (
	"logbloga/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CouponRepo struct{ db *sqlx.DB }

func NewCouponRepo(db *sqlx.DB) *CouponRepo { return &CouponRepo{db: db} }

// GetActive returns the coupon only if it is active and not expired.
// Missing or inactive codes surface as sql.ErrNoRows.
func (r *CouponRepo) GetActive(code string) (domain.Coupon, error) {
	var c domain.Coupon
	err := r.db.Get(&c, `
	  SELECT id, code, type, value, active, COALESCE(expires_at,'') AS expires_at
	  FROM coupons
	  WHERE UPPER(code) = UPPER(?)
	    AND active = 1
	    AND (expires_at IS NULL OR expires_at = '' OR datetime(expires_at) > datetime('now'))
	`, code)
	return c, err
}

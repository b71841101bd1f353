package repos

import (
	"github.com/jmoiron/sqlx"

	"logbloga/internal/domain"
)

type RecommendationRepo struct{ db *sqlx.DB }

func NewRecommendationRepo(db *sqlx.DB) *RecommendationRepo {
	return &RecommendationRepo{db: db}
}

// CoPurchased returns products most often bought in the same order as the
// given product, best sellers first.
func (r *RecommendationRepo) CoPurchased(productID string, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE active = 1 AND id IN (
	    SELECT oi2.product_id
	    FROM order_items oi1
	    JOIN order_items oi2 ON oi2.order_id = oi1.order_id AND oi2.product_id <> oi1.product_id
	    JOIN orders o ON o.id = oi1.order_id AND o.status = 'completed'
	    WHERE oi1.product_id = ?
	    GROUP BY oi2.product_id
	    ORDER BY SUM(oi2.qty) DESC
	  )
	  LIMIT ?
	`, productID, limit)
	return out, err
}

// SameCategory is the fallback when a product has no purchase history yet.
func (r *RecommendationRepo) SameCategory(productID string, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE active = 1 AND id <> ?
	    AND category_id = (SELECT category_id FROM products WHERE id = ?)
	  ORDER BY created_at DESC
	  LIMIT ?
	`, productID, productID, limit)
	return out, err
}

// ForUser recommends active products from categories the user bought in,
// excluding products they already own.
func (r *RecommendationRepo) ForUser(userID string, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE active = 1
	    AND category_id IN (
	      SELECT DISTINCT p.category_id
	      FROM orders o
	      JOIN order_items oi ON oi.order_id = o.id
	      JOIN products p ON p.id = oi.product_id
	      WHERE o.user_id = ? AND o.status = 'completed'
	    )
	    AND id NOT IN (SELECT product_id FROM access_grants WHERE user_id = ?)
	  ORDER BY created_at DESC
	  LIMIT ?
	`, userID, userID, limit)
	return out, err
}

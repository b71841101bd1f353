package repos

import (
	"strconv"

	"github.com/jmoiron/sqlx"
)

// AnalyticsRepo aggregates completed-order data for the admin dashboard.
type AnalyticsRepo struct{ db *sqlx.DB }

func NewAnalyticsRepo(db *sqlx.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

type RevenueDay struct {
	Day     string  `db:"day" json:"day"` // YYYY-MM-DD
	Revenue float64 `db:"revenue" json:"revenue"`
	Orders  int     `db:"orders" json:"orders"`
}

func (r *AnalyticsRepo) RevenueByDay(days int) ([]RevenueDay, error) {
	if days <= 0 {
		days = 30
	}
	out := []RevenueDay{}
	err := r.db.Select(&out, `
	  SELECT substr(created_at,1,10) AS day, SUM(total) AS revenue, COUNT(*) AS orders
	  FROM orders
	  WHERE status = 'completed'
	    AND datetime(created_at) >= datetime('now', ?)
	  GROUP BY day
	  ORDER BY day DESC
	`, "-"+strconv.Itoa(days)+" days")
	return out, err
}

type TopProduct struct {
	ProductID string  `db:"product_id" json:"product_id"`
	Title     string  `db:"title" json:"title"`
	Sold      int     `db:"sold" json:"sold"`
	Revenue   float64 `db:"revenue" json:"revenue"`
}

func (r *AnalyticsRepo) TopProducts(limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = 10
	}
	out := []TopProduct{}
	err := r.db.Select(&out, `
	  SELECT oi.product_id, p.title, SUM(oi.qty) AS sold, SUM(oi.total_price) AS revenue
	  FROM order_items oi
	  JOIN orders o ON o.id = oi.order_id AND o.status = 'completed'
	  JOIN products p ON p.id = oi.product_id
	  GROUP BY oi.product_id
	  ORDER BY sold DESC
	  LIMIT ?
	`, limit)
	return out, err
}

func (r *AnalyticsRepo) OrderCountByStatus() (map[string]int, error) {
	rows := []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}{}
	if err := r.db.Select(&rows, `SELECT status, COUNT(*) AS n FROM orders GROUP BY status`); err != nil {
		return nil, err
	}
	out := map[string]int{}
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

package repos

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"logbloga/internal/domain"
)

type PiracyRepo struct{ db *sqlx.DB }

func NewPiracyRepo(db *sqlx.DB) *PiracyRepo { return &PiracyRepo{db: db} }

const piracyCols = `
  id, product_id, url, COALESCE(reported_by,'') AS reported_by,
  COALESCE(notes,'') AS notes, status, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *PiracyRepo) Insert(productID, url, reportedBy, notes string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.Exec(`
	  INSERT INTO piracy_reports(id, product_id, url, reported_by, notes, status, created_at)
	  VALUES(?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, id, productID, url, reportedBy, notes, domain.ReportNew)
	return id, err
}

func (r *PiracyRepo) Get(id string) (domain.PiracyReport, error) {
	var p domain.PiracyReport
	err := r.db.Get(&p, `SELECT `+piracyCols+` FROM piracy_reports WHERE id = ?`, id)
	return p, err
}

func (r *PiracyRepo) List(status string, limit int) ([]domain.PiracyReport, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []domain.PiracyReport{}
	if status == "" {
		err := r.db.Select(&out, `
		  SELECT `+piracyCols+` FROM piracy_reports
		  ORDER BY datetime(created_at) DESC LIMIT ?
		`, limit)
		return out, err
	}
	err := r.db.Select(&out, `
	  SELECT `+piracyCols+` FROM piracy_reports
	  WHERE status = ?
	  ORDER BY datetime(created_at) DESC LIMIT ?
	`, status, limit)
	return out, err
}

func (r *PiracyRepo) UpdateStatus(id, status string) error {
	_, err := r.db.Exec(`
	  UPDATE piracy_reports SET status=?, updated_at=CURRENT_TIMESTAMP WHERE id=?
	`, status, id)
	return err
}

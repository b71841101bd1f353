package repos

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"logbloga/internal/domain"
)

type NotificationRepo struct{ db *sqlx.DB }

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) Insert(userID, kind, title, body string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.Exec(`
	  INSERT INTO notifications(id, user_id, kind, title, body, is_read, created_at)
	  VALUES(?,?,?,?,?,0,CURRENT_TIMESTAMP)
	`, id, userID, kind, title, body)
	return id, err
}

func (r *NotificationRepo) ListByUser(userID string, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	out := []domain.Notification{}
	err := r.db.Select(&out, `
	  SELECT id, user_id, kind, title, COALESCE(body,'') AS body, is_read, created_at
	  FROM notifications
	  WHERE user_id = ?
	  ORDER BY datetime(created_at) DESC
	  LIMIT ? OFFSET ?
	`, userID, limit, offset)
	return out, err
}

func (r *NotificationRepo) UnreadCount(userID string) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM notifications WHERE user_id=? AND is_read=0`, userID)
	return n, err
}

func (r *NotificationRepo) MarkRead(userID, id string) error {
	_, err := r.db.Exec(`UPDATE notifications SET is_read=1 WHERE id=? AND user_id=?`, id, userID)
	return err
}

func (r *NotificationRepo) MarkAllRead(userID string) error {
	_, err := r.db.Exec(`UPDATE notifications SET is_read=1 WHERE user_id=?`, userID)
	return err
}

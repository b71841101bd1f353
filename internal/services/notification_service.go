package services

import (
	"logbloga/internal/domain"
	"logbloga/internal/repos"
)

type NotificationService struct {
	Repo *repos.NotificationRepo
}

func NewNotificationService(r *repos.NotificationRepo) *NotificationService {
	return &NotificationService{Repo: r}
}

func (s *NotificationService) Notify(userID, kind, title, body string) (string, error) {
	return s.Repo.Insert(userID, kind, title, body)
}

func (s *NotificationService) List(userID string, page, pageSize int) ([]domain.Notification, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return s.Repo.ListByUser(userID, pageSize, (page-1)*pageSize)
}

func (s *NotificationService) UnreadCount(userID string) (int, error) {
	return s.Repo.UnreadCount(userID)
}

func (s *NotificationService) MarkRead(userID, id string) error {
	return s.Repo.MarkRead(userID, id)
}

func (s *NotificationService) MarkAllRead(userID string) error {
	return s.Repo.MarkAllRead(userID)
}

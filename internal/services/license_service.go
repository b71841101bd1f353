package services

import (
	"database/sql"

	"github.com/google/uuid"

	"logbloga/internal/domain"
	"logbloga/internal/repos"
)

type LicenseService struct {
	Licenses *repos.LicenseRepo
	Access   *repos.AccessRepo
}

func NewLicenseService(lic *repos.LicenseRepo, access *repos.AccessRepo) *LicenseService {
	return &LicenseService{Licenses: lic, Access: access}
}

// IssueForOrder creates one license per line item and grants content access.
// Items already licensed under this order are skipped, which makes repeated
// webhook deliveries harmless.
func (s *LicenseService) IssueForOrder(userID, orderID string, items []repos.OrderItemRow) ([]domain.License, error) {
	issued := []domain.License{}
	for _, it := range items {
		exists, err := s.Licenses.ExistsForOrderProduct(orderID, it.ProductID)
		if err != nil {
			return issued, err
		}
		if exists {
			continue
		}
		l := domain.License{
			ID:        uuid.NewString(),
			Key:       uuid.NewString(),
			UserID:    userID,
			OrderID:   orderID,
			ProductID: it.ProductID,
			Status:    domain.LicenseActive,
		}
		if err := s.Licenses.Insert(l); err != nil {
			return issued, err
		}
		if err := s.Access.Grant(userID, it.ProductID); err != nil {
			return issued, err
		}
		issued = append(issued, l)
	}
	return issued, nil
}

// Verify reports whether a license key is currently valid.
func (s *LicenseService) Verify(key string) (domain.License, bool, error) {
	l, err := s.Licenses.ByKey(key)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.License{}, false, nil
		}
		return domain.License{}, false, err
	}
	return l, l.Status == domain.LicenseActive, nil
}

func (s *LicenseService) ListByUser(userID string) ([]domain.License, error) {
	return s.Licenses.ListByUser(userID)
}

// Revoke disables a license and withdraws the matching access grant.
func (s *LicenseService) Revoke(id string) error {
	l, err := s.Licenses.ByID(id)
	if err != nil {
		return err
	}
	if err := s.Licenses.Revoke(l.ID); err != nil {
		return err
	}
	return s.Access.Revoke(l.UserID, l.ProductID)
}

package services

import "logbloga/internal/repos"

type AnalyticsService struct {
	Repo     *repos.AnalyticsRepo
	Licenses *repos.LicenseRepo
}

func NewAnalyticsService(repo *repos.AnalyticsRepo, lic *repos.LicenseRepo) *AnalyticsService {
	return &AnalyticsService{Repo: repo, Licenses: lic}
}

type Dashboard struct {
	Revenue       []repos.RevenueDay `json:"revenue"`
	TopProducts   []repos.TopProduct `json:"top_products"`
	OrdersByState map[string]int     `json:"orders_by_status"`
	Licenses      map[string]int     `json:"licenses_by_status"`
}

func (s *AnalyticsService) Dashboard(days int) (Dashboard, error) {
	revenue, err := s.Repo.RevenueByDay(days)
	if err != nil {
		return Dashboard{}, err
	}
	top, err := s.Repo.TopProducts(10)
	if err != nil {
		return Dashboard{}, err
	}
	byStatus, err := s.Repo.OrderCountByStatus()
	if err != nil {
		return Dashboard{}, err
	}
	licenses, err := s.Licenses.CountByStatus()
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Revenue: revenue, TopProducts: top, OrdersByState: byStatus, Licenses: licenses}, nil
}

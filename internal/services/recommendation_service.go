package services

import (
	"logbloga/internal/domain"
	"logbloga/internal/repos"
)

type RecommendationService struct {
	Repo *repos.RecommendationRepo
}

func NewRecommendationService(r *repos.RecommendationRepo) *RecommendationService {
	return &RecommendationService{Repo: r}
}

const maxRecommendations = 6

// ForProduct prefers co-purchase history and falls back to the product's
// category when the catalog is too young to have any.
func (s *RecommendationService) ForProduct(productID string) ([]domain.Product, error) {
	recs, err := s.Repo.CoPurchased(productID, maxRecommendations)
	if err != nil {
		return nil, err
	}
	if len(recs) > 0 {
		return recs, nil
	}
	return s.Repo.SameCategory(productID, maxRecommendations)
}

func (s *RecommendationService) ForUser(userID string) ([]domain.Product, error) {
	return s.Repo.ForUser(userID, maxRecommendations)
}

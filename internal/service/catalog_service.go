package service

import (
	"context"
	"strings"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/repository"
)

type CatalogService struct {
	repo repository.CatalogRepository
}

func NewCatalogService(repo repository.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// FilterProducts drops hidden products and the ids in hiddenIDs, then keeps
// those whose name or reference contains search, ignoring case.
func FilterProducts(products []domain.Product, search string, hiddenIDs []int64) []domain.Product {
	hidden := make(map[int64]struct{}, len(hiddenIDs))
	for _, id := range hiddenIDs {
		hidden[id] = struct{}{}
	}
	search = strings.ToLower(strings.TrimSpace(search))

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.IsHidden {
			continue
		}
		if _, ok := hidden[p.ID]; ok {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Reference), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *CatalogService) ListProducts(ctx context.Context, search string, hiddenIDs []int64) ([]domain.Product, error) {
	products, err := s.repo.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	return FilterProducts(products, search, hiddenIDs), nil
}

// ListCategories returns categories with their visible products.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = make([]domain.Category, 0)
	}

	for i := range categories {
		categories[i].Products = FilterProducts(categories[i].Products, "", nil)
	}
	return categories, nil
}

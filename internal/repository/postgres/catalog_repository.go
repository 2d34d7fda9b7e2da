package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/jmoiron/sqlx"
)

type catalogRepository struct {
	db *DB
}

func NewCatalogRepository(db *DB) *catalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT
			id,
			reference,
			name,
			COALESCE(stock_unit, '') AS stock_unit,
			COALESCE(destination_code, '') AS destination_code,
			is_hidden,
			category_id,
			unit_conversion
		FROM products
		ORDER BY name
	`

	var products []domain.Product
	if err := sqlx.SelectContext(ctx, r.db, &products, query); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

// GetCategories returns every category with its products, sorted by name.
func (r *catalogRepository) GetCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT id, name
		FROM categories
		ORDER BY name
	`

	var categories []domain.Category
	if err := sqlx.SelectContext(ctx, r.db, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	products, err := r.GetProducts(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[int64]int, len(categories))
	for i, c := range categories {
		index[c.ID] = i
	}
	for _, p := range products {
		if p.CategoryID == nil {
			continue
		}
		if i, ok := index[*p.CategoryID]; ok {
			categories[i].Products = append(categories[i].Products, p)
		}
	}

	return categories, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andresuchdata/autoorder/internal/domain"
)

// IngestRepository writes catalog rows coming from spreadsheet imports.
type IngestRepository struct {
	db *sql.DB
}

func NewIngestRepository(db *sql.DB) *IngestRepository {
	return &IngestRepository{db: db}
}

func (r *IngestRepository) UpsertCategory(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO categories (name, created_at)
		VALUES ($1, NOW())
		ON CONFLICT (name)
		DO UPDATE SET updated_at = NOW()
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert category %q: %w", name, err)
	}
	return id, nil
}

// UpsertProduct inserts or updates a product keyed by its reference. The
// hidden flag is left untouched on update.
func (r *IngestRepository) UpsertProduct(ctx context.Context, product *domain.Product) (int64, error) {
	query := `
		INSERT INTO products (reference, name, stock_unit, destination_code, category_id, unit_conversion, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (reference)
		DO UPDATE SET
			name = EXCLUDED.name,
			stock_unit = EXCLUDED.stock_unit,
			destination_code = EXCLUDED.destination_code,
			category_id = COALESCE(EXCLUDED.category_id, products.category_id),
			unit_conversion = COALESCE(EXCLUDED.unit_conversion, products.unit_conversion),
			updated_at = NOW()
		RETURNING id
	`

	var conversion interface{}
	if product.UnitConversion.Valid() {
		conversion = product.UnitConversion
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		product.Reference,
		product.Name,
		product.StockUnit,
		product.DestinationCode,
		product.CategoryID,
		conversion,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert product %s: %w", product.Reference, err)
	}
	return id, nil
}

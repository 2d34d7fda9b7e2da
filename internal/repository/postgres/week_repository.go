package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/jmoiron/sqlx"
)

const weekColumns = `id, year, week_number, sales_forecast, consumption_data`

type weekRepository struct {
	db *DB
}

func NewWeekRepository(db *DB) *weekRepository {
	return &weekRepository{db: db}
}

func (r *weekRepository) GetWeekData(ctx context.Context, year, week int) (*domain.WeekData, error) {
	query := `
		SELECT ` + weekColumns + `
		FROM weeks_data
		WHERE year = $1 AND week_number = $2
	`

	var w domain.WeekData
	if err := sqlx.GetContext(ctx, r.db, &w, query, year, week); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrWeekNotFound, domain.WeekKey{Year: year, Week: week})
		}
		return nil, fmt.Errorf("failed to get week data: %w", err)
	}

	return &w, nil
}

func (r *weekRepository) CreateWeekData(ctx context.Context, year, week int) (*domain.WeekData, error) {
	query := `
		INSERT INTO weeks_data (year, week_number, sales_forecast, consumption_data, created_at)
		VALUES ($1, $2, '{}'::jsonb, '{}'::jsonb, NOW())
		ON CONFLICT (year, week_number)
		DO UPDATE SET updated_at = NOW()
		RETURNING ` + weekColumns

	release, err := r.db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var w domain.WeekData
	if err := sqlx.GetContext(ctx, r.db, &w, query, year, week); err != nil {
		return nil, fmt.Errorf("failed to create week data: %w", err)
	}

	return &w, nil
}

func (r *weekRepository) UpsertSalesForecast(ctx context.Context, weekDataID int64, forecast domain.SalesForecast) error {
	return r.mergeJSONB(ctx, "sales_forecast", weekDataID, forecast)
}

func (r *weekRepository) UpsertConsumptionData(ctx context.Context, weekDataID int64, ratios domain.ConsumptionRatios) error {
	return r.mergeJSONB(ctx, "consumption_data", weekDataID, ratios)
}

// mergeJSONB merges the given object into a JSONB column; existing keys are
// overwritten, others kept.
func (r *weekRepository) mergeJSONB(ctx context.Context, column string, weekDataID int64, value interface{}) error {
	query := fmt.Sprintf(`
		UPDATE weeks_data
		SET %[1]s = COALESCE(%[1]s, '{}'::jsonb) || $2::jsonb,
			updated_at = NOW()
		WHERE id = $1
	`, column)

	res, err := r.db.exec(ctx, query, weekDataID, value)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrWeekNotFound, weekDataID)
	}

	return nil
}

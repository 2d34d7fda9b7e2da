package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/jmoiron/sqlx"
)

const orderColumns = `id, week_data_id, order_number, delivery_date, real_stock, theoretical_stock, ordered_quantities`

type orderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *orderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) GetOrdersForWeek(ctx context.Context, week *domain.WeekData) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE week_data_id = $1
		ORDER BY order_number ASC
	`

	var orders []domain.Order
	if err := sqlx.SelectContext(ctx, r.db, &orders, query, week.ID); err != nil {
		return nil, fmt.Errorf("failed to get orders for week %d: %w", week.ID, err)
	}

	for i := range orders {
		orders[i].WeekData = week
	}

	return orders, nil
}

func (r *orderRepository) CreateInitialOrders(ctx context.Context, weekDataID int64, deliveryDates []domain.Date) ([]domain.Order, error) {
	query := `
		INSERT INTO orders (week_data_id, order_number, delivery_date, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (week_data_id, order_number)
		DO UPDATE SET
			delivery_date = EXCLUDED.delivery_date,
			updated_at = NOW()
		RETURNING ` + orderColumns

	orders := make([]domain.Order, 0, len(deliveryDates))
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, date := range deliveryDates {
			var o domain.Order
			err := stmt.QueryRowContext(ctx, weekDataID, i+1, date).Scan(
				&o.ID,
				&o.WeekDataID,
				&o.OrderNumber,
				&o.DeliveryDate,
				&o.RealStock,
				&o.TheoreticalStock,
				&o.OrderedQuantities,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert order %d: %w", i+1, err)
			}
			orders = append(orders, o)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepository) UpdateOrderStock(ctx context.Context, orderID, productID int64, value *float64) error {
	return r.updateProductValue(ctx, "real_stock", orderID, productID, value)
}

func (r *orderRepository) UpdateOrderQuantity(ctx context.Context, orderID, productID int64, value *float64) error {
	return r.updateProductValue(ctx, "ordered_quantities", orderID, productID, value)
}

// updateProductValue sets or removes one key of a sparse JSONB map in a
// single statement, so concurrent edits of other products are not lost.
func (r *orderRepository) updateProductValue(ctx context.Context, column string, orderID, productID int64, value *float64) error {
	key := strconv.FormatInt(productID, 10)

	var (
		query string
		args  []interface{}
	)
	if value == nil {
		query = fmt.Sprintf(`
			UPDATE orders
			SET %[1]s = COALESCE(%[1]s, '{}'::jsonb) - $2::text,
				updated_at = NOW()
			WHERE id = $1
		`, column)
		args = []interface{}{orderID, key}
	} else {
		query = fmt.Sprintf(`
			UPDATE orders
			SET %[1]s = COALESCE(%[1]s, '{}'::jsonb) || jsonb_build_object($2::text, $3::numeric),
				updated_at = NOW()
			WHERE id = $1
		`, column)
		args = []interface{}{orderID, key, *value}
	}

	res, err := r.db.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s of order %d: %w", column, orderID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrOrderNotFound, orderID)
	}

	return nil
}

func (r *orderRepository) SetTheoreticalStock(ctx context.Context, orderID int64, stock domain.ProductQuantities) error {
	query := `
		UPDATE orders
		SET theoretical_stock = $2::jsonb,
			updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.db.exec(ctx, query, orderID, stock)
	if err != nil {
		return fmt.Errorf("failed to set theoretical stock of order %d: %w", orderID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrOrderNotFound, orderID)
	}

	return nil
}

package repository

import (
	"context"

	"github.com/andresuchdata/autoorder/internal/domain"
)

type WeekRepository interface {
	// GetWeekData returns domain.ErrWeekNotFound when the week has no record.
	GetWeekData(ctx context.Context, year, week int) (*domain.WeekData, error)
	CreateWeekData(ctx context.Context, year, week int) (*domain.WeekData, error)
	UpsertSalesForecast(ctx context.Context, weekDataID int64, forecast domain.SalesForecast) error
	UpsertConsumptionData(ctx context.Context, weekDataID int64, ratios domain.ConsumptionRatios) error
}

type OrderRepository interface {
	// GetOrdersForWeek returns the orders of week sorted by order number,
	// each with its WeekData set to week.
	GetOrdersForWeek(ctx context.Context, week *domain.WeekData) ([]domain.Order, error)
	CreateInitialOrders(ctx context.Context, weekDataID int64, deliveryDates []domain.Date) ([]domain.Order, error)

	// UpdateOrderStock sets the real stock of a product, or clears it when
	// value is nil.
	UpdateOrderStock(ctx context.Context, orderID, productID int64, value *float64) error
	// UpdateOrderQuantity sets the ordered quantity of a product, or clears
	// it when value is nil.
	UpdateOrderQuantity(ctx context.Context, orderID, productID int64, value *float64) error
	SetTheoreticalStock(ctx context.Context, orderID int64, stock domain.ProductQuantities) error
}

type CatalogRepository interface {
	GetProducts(ctx context.Context) ([]domain.Product, error)
	GetCategories(ctx context.Context) ([]domain.Category, error)
}

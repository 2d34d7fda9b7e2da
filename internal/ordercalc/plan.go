package ordercalc

import (
	"math"

	"github.com/andresuchdata/autoorder/internal/domain"
)

// ComputeOrderPlan computes one need line per product for order. Products are
// kept in input order; filtering hidden ones is left to the caller.
func ComputeOrderPlan(order domain.Order, week, next *domain.WeekData, products []domain.Product, current, previous []domain.Order) (domain.OrderPlan, error) {
	period, err := ResolvePeriod(OrderNumber(order.OrderNumber), order.DeliveryDate)
	if err != nil {
		return domain.OrderPlan{}, err
	}

	plan := domain.OrderPlan{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		DeliveryDay:     domain.OrderDayLabel(order.OrderNumber),
		DeliveryDate:    order.DeliveryDate,
		StockTakingDate: period.StockTakingDate,
		PeriodStart:     period.Start,
		PeriodEnd:       period.End,
		Lines:           make([]domain.NeedLine, 0, len(products)),
	}

	for _, product := range products {
		b, err := ExplainNeed(order, week, next, product, current, previous)
		if err != nil {
			return domain.OrderPlan{}, err
		}

		line := domain.NeedLine{
			ProductID:        product.ID,
			Reference:        product.Reference,
			Name:             product.Name,
			StockUnit:        product.StockUnit,
			CategoryID:       product.CategoryID,
			StockSource:      b.StockSource,
			Stock:            b.Stock,
			TheoreticalStock: b.Theoretical.Stock,
			UsedDefault:      b.Theoretical.UsedDefault,
			Consumption:      b.Consumption,
			PreviousOrdered:  b.PreviousOrdered,
			Need:             b.Need,
			NeedPackages:     ToPackages(b.Need, product),
			OrderRequired:    b.Need > 0,
		}
		if v, ok := order.OrderedQuantities.Get(product.ID); ok && !math.IsNaN(v) {
			qty := v
			line.OrderedQuantity = &qty
		}
		plan.Lines = append(plan.Lines, line)
	}

	return plan, nil
}

package ordercalc

import "github.com/andresuchdata/autoorder/internal/domain"

// NeedBreakdown details the terms of a need computation. Stock and
// PreviousOrdered are in order packages, the *Units fields and Need in stock
// units.
type NeedBreakdown struct {
	Period           Period
	StockSource      string
	Stock            float64
	StockUnits       float64
	Theoretical      StockBreakdown
	Consumption      float64
	PreviousOrdered  float64
	PreviousOrdUnits float64
	Need             float64
}

// predecessor returns the order delivered immediately before position n.
func predecessor(n OrderNumber, current, previous []domain.Order) *domain.Order {
	if n == FirstOrder {
		return FindOrder(previous, ThirdOrder)
	}
	return FindOrder(current, n-1)
}

// ExplainNeed computes the signed need of product for order, in stock units:
//
//	consumption(period) - stock - ordered(predecessor)
//
// Stock is the order's real stock, else its stored theoretical stock, else
// the theoretical stock carried forward from its predecessors. A negative
// need is a surplus.
func ExplainNeed(order domain.Order, week, next *domain.WeekData, product domain.Product, current, previous []domain.Order) (NeedBreakdown, error) {
	n := OrderNumber(order.OrderNumber)
	period, err := ResolvePeriod(n, order.DeliveryDate)
	if err != nil {
		return NeedBreakdown{}, err
	}

	theoretical, err := ExplainTheoreticalStock(order, product, current, previous)
	if err != nil {
		return NeedBreakdown{}, err
	}

	b := NeedBreakdown{Period: period, Theoretical: theoretical}
	if v, ok := order.RealStock.Get(product.ID); ok {
		b.Stock, b.StockSource = v, domain.StockSourceReal
	} else if v, ok := order.TheoreticalStock.Get(product.ID); ok {
		b.Stock, b.StockSource = v, domain.StockSourceTheoretical
	} else {
		b.Stock, b.StockSource = theoretical.Stock, domain.StockSourceComputed
	}

	b.StockUnits = ToUnits(b.Stock, product)
	b.Consumption = EstimateConsumption(product, week, next, period.Start, period.End)
	b.PreviousOrdered = OrderedQuantity(predecessor(n, current, previous), product.ID)
	b.PreviousOrdUnits = ToUnits(b.PreviousOrdered, product)
	b.Need = b.Consumption - b.StockUnits - b.PreviousOrdUnits
	return b, nil
}

// ComputeNeed is ExplainNeed reduced to the need value.
func ComputeNeed(order domain.Order, week, next *domain.WeekData, product domain.Product, current, previous []domain.Order) (float64, error) {
	b, err := ExplainNeed(order, week, next, product, current, previous)
	if err != nil {
		return 0, err
	}
	return b.Need, nil
}

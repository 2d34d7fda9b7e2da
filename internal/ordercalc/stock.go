package ordercalc

import (
	"math"

	"github.com/andresuchdata/autoorder/internal/domain"
)

// EffectiveStock returns the real stock of productID on o when present,
// otherwise its stored theoretical stock. The boolean is false when neither
// is set or o is nil. A present value of 0 is authoritative.
func EffectiveStock(o *domain.Order, productID int64) (float64, bool) {
	if o == nil {
		return 0, false
	}
	if v, ok := o.RealStock.Get(productID); ok {
		return v, true
	}
	if v, ok := o.TheoreticalStock.Get(productID); ok {
		return v, true
	}
	return 0, false
}

// OrderedQuantity returns the quantity of productID ordered on o, or 0 when
// o is nil or the quantity is absent or NaN.
func OrderedQuantity(o *domain.Order, productID int64) float64 {
	if o == nil {
		return 0
	}
	v, ok := o.OrderedQuantities.Get(productID)
	if !ok || math.IsNaN(v) {
		return 0
	}
	return v
}

// FindOrder returns the order at cadence position n, or nil.
func FindOrder(orders []domain.Order, n OrderNumber) *domain.Order {
	for i := range orders {
		if orders[i].OrderNumber == int(n) {
			return &orders[i]
		}
	}
	return nil
}

// StockBreakdown details how a theoretical stock value was obtained.
type StockBreakdown struct {
	PredecessorStock float64
	OrderedQuantity  float64
	GapConsumption   float64
	GapStart         domain.Date
	GapEnd           domain.Date
	// UsedDefault is set when a predecessor order was missing and the
	// result fell back to 0.
	UsedDefault bool
	Stock       float64
}

// chainSources returns the orders the theoretical stock of position n is
// carried forward from, and the gap window length in days before the
// stock-taking date.
func chainSources(n OrderNumber, current, previous []domain.Order) (stockSrc, qtySrc *domain.Order, gapDays int, err error) {
	switch n {
	case FirstOrder:
		return FindOrder(previous, ThirdOrder), FindOrder(previous, SecondOrder), 3, nil
	case SecondOrder:
		return FindOrder(current, FirstOrder), FindOrder(previous, ThirdOrder), 2, nil
	case ThirdOrder:
		return FindOrder(current, SecondOrder), FindOrder(current, FirstOrder), 2, nil
	default:
		return nil, nil, 0, n.Validate()
	}
}

// ExplainTheoreticalStock computes the stock of product expected at the
// stock-taking date of order, carried forward from its predecessor:
//
//	stock(predecessor) + ordered(quantity source) - consumption(gap)
//
// The gap consumption is estimated against the predecessor's own week. When
// either source order is missing the result is 0 and UsedDefault is set.
func ExplainTheoreticalStock(order domain.Order, product domain.Product, current, previous []domain.Order) (StockBreakdown, error) {
	n := OrderNumber(order.OrderNumber)
	period, err := ResolvePeriod(n, order.DeliveryDate)
	if err != nil {
		return StockBreakdown{}, err
	}

	stockSrc, qtySrc, gapDays, err := chainSources(n, current, previous)
	if err != nil {
		return StockBreakdown{}, err
	}

	b := StockBreakdown{
		GapStart: period.StockTakingDate.AddDays(-gapDays),
		GapEnd:   period.StockTakingDate.AddDays(-1),
	}
	if stockSrc == nil || qtySrc == nil {
		b.UsedDefault = true
		return b, nil
	}

	b.PredecessorStock, _ = EffectiveStock(stockSrc, product.ID)
	b.OrderedQuantity = OrderedQuantity(qtySrc, product.ID)
	b.GapConsumption = EstimateConsumption(product, stockSrc.WeekData, nil, b.GapStart, b.GapEnd)
	b.Stock = b.PredecessorStock + b.OrderedQuantity - b.GapConsumption
	return b, nil
}

// ComputeTheoreticalStock is ExplainTheoreticalStock reduced to its value.
func ComputeTheoreticalStock(order domain.Order, product domain.Product, current, previous []domain.Order) (float64, error) {
	b, err := ExplainTheoreticalStock(order, product, current, previous)
	if err != nil {
		return 0, err
	}
	return b.Stock, nil
}

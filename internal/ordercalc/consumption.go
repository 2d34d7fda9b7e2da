package ordercalc

import "github.com/andresuchdata/autoorder/internal/domain"

// forecastBase is the number of forecast sales a consumption ratio refers to.
const forecastBase = 1000

// EstimateConsumption returns the stock units of product expected to be
// consumed between start and end (inclusive):
//
//	ratio × forecast(start..end) / 1000
//
// The ratio is read from week. next is the optional look-ahead week used
// when the period runs past the end of week. A missing week, missing ratios
// or an empty product reference all yield 0.
func EstimateConsumption(product domain.Product, week, next *domain.WeekData, start, end domain.Date) float64 {
	if week == nil || week.ConsumptionData == nil || product.Reference == "" {
		return 0
	}

	ratio := week.ConsumptionData[product.Reference]
	if ratio == 0 {
		return 0
	}

	return ratio * SumForecast(week, next, start, end) / forecastBase
}

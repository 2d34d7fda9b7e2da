package ordercalc

import "github.com/andresuchdata/autoorder/internal/domain"

// SumForecast adds up the daily sales forecast of week and, when given, of
// the following week for every day in [start, end]. Both bounds are
// inclusive and compared as calendar days. Entries whose key is not a date
// are ignored.
func SumForecast(week, next *domain.WeekData, start, end domain.Date) float64 {
	return sumWeekForecast(week, start, end) + sumWeekForecast(next, start, end)
}

func sumWeekForecast(week *domain.WeekData, start, end domain.Date) float64 {
	if week == nil || week.SalesForecast == nil {
		return 0
	}

	total := 0.0
	for key, forecast := range week.SalesForecast {
		day, err := domain.ParseDate(key)
		if err != nil {
			continue
		}
		if day.Before(start) || day.After(end) {
			continue
		}
		total += forecast
	}
	return total
}

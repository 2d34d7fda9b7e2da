package service

import (
	"fmt"
	"math"
	"strconv"

	"github.com/andresuchdata/autoorder/internal/domain"
)

// maxQuantityDecimals is the precision of stock and package entries.
const maxQuantityDecimals = 2

// ValidateQuantity accepts nil (clear the value) or a finite, non-negative
// number with at most two decimals.
func ValidateQuantity(value *float64) error {
	if value == nil {
		return nil
	}

	v := *value
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: got %v", domain.ErrInvalidQuantity, v)
	}
	if !validDecimals(v, maxQuantityDecimals) {
		return fmt.Errorf("%w: at most %d decimals, got %v", domain.ErrInvalidQuantity, maxQuantityDecimals, v)
	}

	return nil
}

func validDecimals(v float64, max int) bool {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return len(s)-i-1 <= max
		}
	}
	return true
}

// ValidateDeliveryDates parses the three delivery dates of a week. They must
// be in cadence order.
func ValidateDeliveryDates(dates []string) ([]domain.Date, error) {
	if len(dates) != 3 {
		return nil, fmt.Errorf("%w: expected 3 dates, got %d", domain.ErrInvalidDelivery, len(dates))
	}

	parsed := make([]domain.Date, len(dates))
	for i, s := range dates {
		d, err := domain.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("%w: order %d: %v", domain.ErrInvalidDelivery, i+1, err)
		}
		if i > 0 && !d.After(parsed[i-1]) {
			return nil, fmt.Errorf("%w: order %d is not after order %d", domain.ErrInvalidDelivery, i+1, i)
		}
		parsed[i] = d
	}

	return parsed, nil
}

// DefaultDeliveryDates returns the usual Thursday, Saturday and next Tuesday
// deliveries of an ISO week.
func DefaultDeliveryDates(key domain.WeekKey) []domain.Date {
	monday := key.Monday()
	return []domain.Date{
		monday.AddDays(3),
		monday.AddDays(5),
		monday.AddDays(8),
	}
}

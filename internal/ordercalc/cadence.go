// Package ordercalc computes theoretical stock and ordering needs for the
// three weekly orders. Every function is pure: inputs are read-only snapshots
// and results depend on nothing else, so calls may run concurrently.
package ordercalc

import (
	"errors"
	"fmt"

	"github.com/andresuchdata/autoorder/internal/domain"
)

// ErrInvalidOrderNumber is returned for a cadence position outside 1..3.
var ErrInvalidOrderNumber = errors.New("invalid order number")

// OrderNumber is the position of an order in the weekly cadence.
type OrderNumber int

const (
	// FirstOrder is delivered on Thursday.
	FirstOrder OrderNumber = 1
	// SecondOrder is delivered on Saturday.
	SecondOrder OrderNumber = 2
	// ThirdOrder is delivered on the Tuesday of the following week.
	ThirdOrder OrderNumber = 3
)

// Validate fails with ErrInvalidOrderNumber for unknown positions.
func (n OrderNumber) Validate() error {
	switch n {
	case FirstOrder, SecondOrder, ThirdOrder:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidOrderNumber, int(n))
	}
}

// Period is the consumption window an order has to cover.
type Period struct {
	StockTakingDate domain.Date
	Start           domain.Date
	End             domain.Date
}

// CrossesWeek reports whether the period ends in a later ISO week than it starts.
func (p Period) CrossesWeek() bool {
	return p.Start.ISOWeek() != p.End.ISOWeek()
}

// ResolvePeriod maps an order position and its delivery date to the
// stock-taking date and the consumption window:
//
//	1 (Thu): taking d-3, window [d-3, d+2]
//	2 (Sat): taking d-3, window [d-3, d+9]
//	3 (Tue): taking d-4, window [d-4, d+9]
func ResolvePeriod(n OrderNumber, delivery domain.Date) (Period, error) {
	switch n {
	case FirstOrder:
		return Period{
			StockTakingDate: delivery.AddDays(-3),
			Start:           delivery.AddDays(-3),
			End:             delivery.AddDays(2),
		}, nil
	case SecondOrder:
		return Period{
			StockTakingDate: delivery.AddDays(-3),
			Start:           delivery.AddDays(-3),
			End:             delivery.AddDays(9),
		}, nil
	case ThirdOrder:
		return Period{
			StockTakingDate: delivery.AddDays(-4),
			Start:           delivery.AddDays(-4),
			End:             delivery.AddDays(9),
		}, nil
	default:
		return Period{}, fmt.Errorf("%w: %d", ErrInvalidOrderNumber, int(n))
	}
}

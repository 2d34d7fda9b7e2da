package service

import (
	"context"
	"sort"
	"time"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/ordercalc"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 3

// WeekSnapshot is everything needed to compute the plan of one week.
type WeekSnapshot struct {
	Week               *domain.WeekData `json:"week"`
	NextWeek           *domain.WeekData `json:"next_week,omitempty"`
	PreviousWeek       *domain.WeekData `json:"previous_week,omitempty"`
	Products           []domain.Product `json:"products"`
	Orders             []domain.Order   `json:"orders"`
	PreviousWeekOrders []domain.Order   `json:"previous_week_orders"`
}

// normalize sorts orders by cadence position and points every order without
// a week back-reference at the week it was loaded for.
func (s *WeekSnapshot) normalize() {
	attach := func(orders []domain.Order, week *domain.WeekData) {
		sort.SliceStable(orders, func(i, j int) bool {
			return orders[i].OrderNumber < orders[j].OrderNumber
		})
		for i := range orders {
			if orders[i].WeekData == nil {
				orders[i].WeekData = week
			}
		}
	}
	attach(s.Orders, s.Week)
	attach(s.PreviousWeekOrders, s.PreviousWeek)
}

// ComputeWeekPlan computes the plan of every order of the snapshot, at most
// workers orders at a time. Each order is computed from the snapshot alone,
// so results do not depend on scheduling.
func ComputeWeekPlan(ctx context.Context, snap *WeekSnapshot, workers int) (*domain.WeekPlan, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}
	snap.normalize()

	plans := make([]domain.OrderPlan, len(snap.Orders))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range snap.Orders {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			plan, err := ordercalc.ComputeOrderPlan(snap.Orders[i], snap.Week, snap.NextWeek, snap.Products, snap.Orders, snap.PreviousWeekOrders)
			if err != nil {
				return err
			}
			plans[i] = plan
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plan := &domain.WeekPlan{
		HasNextWeek: snap.NextWeek != nil,
		Orders:      plans,
		ComputedAt:  time.Now().UTC(),
	}
	if snap.Week != nil {
		plan.Year, plan.WeekNumber = snap.Week.Year, snap.Week.WeekNumber
	}
	return plan, nil
}

// FeedForwardTheoreticalStock recomputes the theoretical stock of the
// snapshot's orders in ascending cadence order, each order seeing the values
// just computed for its predecessors. Products whose predecessor is missing
// are left out. The snapshot orders are updated in place.
func FeedForwardTheoreticalStock(snap *WeekSnapshot) (map[int64]domain.ProductQuantities, error) {
	snap.normalize()

	out := make(map[int64]domain.ProductQuantities, len(snap.Orders))
	for i := range snap.Orders {
		order := &snap.Orders[i]
		stock := make(domain.ProductQuantities, len(snap.Products))
		for _, product := range snap.Products {
			b, err := ordercalc.ExplainTheoreticalStock(*order, product, snap.Orders, snap.PreviousWeekOrders)
			if err != nil {
				return nil, err
			}
			if b.UsedDefault {
				continue
			}
			stock[product.ID] = b.Stock
		}
		order.TheoreticalStock = stock
		out[order.ID] = stock
	}

	return out, nil
}

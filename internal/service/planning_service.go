package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/andresuchdata/autoorder/internal/cache"
	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/repository"
	"github.com/andresuchdata/autoorder/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type PlanningOptions struct {
	Workers      int
	ExportPrefix string
}

type PlanningService struct {
	weeks   repository.WeekRepository
	orders  repository.OrderRepository
	catalog repository.CatalogRepository
	cache   cache.WeekPlanCache
	storage storage.ObjectStorage
	opts    PlanningOptions
}

// NewPlanningService wires the planner. cacheImpl and store may be nil; a
// nil store disables exports.
func NewPlanningService(
	weeks repository.WeekRepository,
	orders repository.OrderRepository,
	catalog repository.CatalogRepository,
	cacheImpl cache.WeekPlanCache,
	store storage.ObjectStorage,
	opts PlanningOptions,
) *PlanningService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopWeekPlanCache()
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.ExportPrefix == "" {
		opts.ExportPrefix = "plans"
	}
	return &PlanningService{
		weeks:   weeks,
		orders:  orders,
		catalog: catalog,
		cache:   cacheImpl,
		storage: store,
		opts:    opts,
	}
}

func weekKey(year, week int) (domain.WeekKey, error) {
	key := domain.WeekKey{Year: year, Week: week}
	if !key.Valid() {
		return key, fmt.Errorf("%w: %s", domain.ErrInvalidWeek, key)
	}
	return key, nil
}

// optionalWeek loads a neighbouring week, returning nil when it has no record.
func (s *PlanningService) optionalWeek(ctx context.Context, key domain.WeekKey) (*domain.WeekData, error) {
	week, err := s.weeks.GetWeekData(ctx, key.Year, key.Week)
	if errors.Is(err, domain.ErrWeekNotFound) {
		return nil, nil
	}
	return week, err
}

// LoadSnapshot fetches the week, its neighbours, its orders, the previous
// week's orders and the visible products.
func (s *PlanningService) LoadSnapshot(ctx context.Context, year, week int) (*WeekSnapshot, error) {
	key, err := weekKey(year, week)
	if err != nil {
		return nil, err
	}

	current, err := s.weeks.GetWeekData(ctx, key.Year, key.Week)
	if err != nil {
		return nil, err
	}

	snap := &WeekSnapshot{Week: current}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		next, err := s.optionalWeek(gctx, key.Next())
		snap.NextWeek = next
		return err
	})
	g.Go(func() error {
		orders, err := s.orders.GetOrdersForWeek(gctx, current)
		snap.Orders = orders
		return err
	})
	g.Go(func() error {
		previous, err := s.optionalWeek(gctx, key.Previous())
		if err != nil || previous == nil {
			return err
		}
		snap.PreviousWeek = previous
		snap.PreviousWeekOrders, err = s.orders.GetOrdersForWeek(gctx, previous)
		return err
	})
	g.Go(func() error {
		products, err := s.catalog.GetProducts(gctx)
		snap.Products = FilterProducts(products, "", nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load week %s: %w", key, err)
	}

	return snap, nil
}

func (s *PlanningService) GetWeekPlan(ctx context.Context, year, week int) (*domain.WeekPlan, error) {
	key, err := weekKey(year, week)
	if err != nil {
		return nil, err
	}

	if plan, ok, err := s.cache.GetPlan(ctx, key); err == nil && ok {
		return plan, nil
	} else if err != nil {
		log.Warn().Err(err).Str("week", key.String()).Msg("planning: cache get plan failed")
	}

	snap, err := s.LoadSnapshot(ctx, year, week)
	if err != nil {
		return nil, err
	}

	plan, err := ComputeWeekPlan(ctx, snap, s.opts.Workers)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetPlan(ctx, key, plan); err != nil {
		log.Warn().Err(err).Str("week", key.String()).Msg("planning: cache set plan failed")
	}

	return plan, nil
}

// CreateWeek creates the week record and its three orders. Without delivery
// dates the usual Thursday, Saturday and Tuesday schedule is used.
func (s *PlanningService) CreateWeek(ctx context.Context, year, week int, deliveryDates []string) ([]domain.Order, error) {
	key, err := weekKey(year, week)
	if err != nil {
		return nil, err
	}

	dates := DefaultDeliveryDates(key)
	if len(deliveryDates) > 0 {
		if dates, err = ValidateDeliveryDates(deliveryDates); err != nil {
			return nil, err
		}
	}

	record, err := s.weeks.CreateWeekData(ctx, key.Year, key.Week)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.CreateInitialOrders(ctx, record.ID, dates)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].WeekData = record
	}

	s.invalidate(ctx)
	log.Info().Str("week", key.String()).Int("orders", len(orders)).Msg("planning: week created")
	return orders, nil
}

func (s *PlanningService) UpdateOrderStock(ctx context.Context, orderID, productID int64, value *float64) error {
	if err := ValidateQuantity(value); err != nil {
		return err
	}
	if err := s.orders.UpdateOrderStock(ctx, orderID, productID, value); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *PlanningService) UpdateOrderQuantity(ctx context.Context, orderID, productID int64, value *float64) error {
	if err := ValidateQuantity(value); err != nil {
		return err
	}
	if err := s.orders.UpdateOrderQuantity(ctx, orderID, productID, value); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// SnapshotResult reports what SnapshotTheoreticalStock stored.
type SnapshotResult struct {
	Week     domain.WeekKey `json:"week"`
	Orders   int            `json:"orders"`
	Products int            `json:"products"`
}

// SnapshotTheoreticalStock stores the feed-forward theoretical stock of every
// order of the week.
func (s *PlanningService) SnapshotTheoreticalStock(ctx context.Context, year, week int) (*SnapshotResult, error) {
	snap, err := s.LoadSnapshot(ctx, year, week)
	if err != nil {
		return nil, err
	}

	stocks, err := FeedForwardTheoreticalStock(snap)
	if err != nil {
		return nil, err
	}

	result := &SnapshotResult{Week: snap.Week.Key()}
	for _, order := range snap.Orders {
		stock := stocks[order.ID]
		if err := s.orders.SetTheoreticalStock(ctx, order.ID, stock); err != nil {
			return nil, err
		}
		result.Orders++
		result.Products += len(stock)
	}

	s.invalidate(ctx)
	return result, nil
}

// ExportWeekPlan renders the week plan to CSV, uploads it and returns the
// object key.
func (s *PlanningService) ExportWeekPlan(ctx context.Context, year, week int) (string, error) {
	if s.storage == nil {
		return "", domain.ErrStorageDisabled
	}

	plan, err := s.GetWeekPlan(ctx, year, week)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := WritePlanCSV(&buf, plan); err != nil {
		return "", err
	}

	key := path.Join(s.opts.ExportPrefix, domain.WeekKey{Year: plan.Year, Week: plan.WeekNumber}.String()+".csv")
	if err := s.storage.UploadObject(ctx, key, "text/csv", buf.Bytes()); err != nil {
		return "", fmt.Errorf("upload plan export: %w", err)
	}

	log.Info().Str("key", key).Int("bytes", buf.Len()).Msg("planning: plan exported")
	return key, nil
}

// ListExports lists previously exported plans.
func (s *PlanningService) ListExports(ctx context.Context) ([]storage.ObjectInfo, error) {
	if s.storage == nil {
		return nil, domain.ErrStorageDisabled
	}
	return s.storage.ListObjects(ctx, s.opts.ExportPrefix+"/")
}

// InvalidatePlans drops cached plans after data changed outside the service.
func (s *PlanningService) InvalidatePlans(ctx context.Context) {
	s.invalidate(ctx)
}

func (s *PlanningService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("planning: cache invalidation failed")
	}
}

package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/storage"
)

type memoryStore struct {
	mu       sync.Mutex
	weeks    map[domain.WeekKey]*domain.WeekData
	orders   map[int64][]domain.Order
	products []domain.Product
	nextID   int64
	updates  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		weeks:  map[domain.WeekKey]*domain.WeekData{},
		orders: map[int64][]domain.Order{},
		nextID: 100,
	}
}

func (m *memoryStore) addWeek(w *domain.WeekData, orders ...domain.Order) {
	m.weeks[w.Key()] = w
	for i := range orders {
		orders[i].WeekDataID = w.ID
	}
	m.orders[w.ID] = orders
}

func (m *memoryStore) GetWeekData(ctx context.Context, year, week int) (*domain.WeekData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.weeks[domain.WeekKey{Year: year, Week: week}]
	if !ok {
		return nil, domain.ErrWeekNotFound
	}
	return w, nil
}

func (m *memoryStore) CreateWeekData(ctx context.Context, year, week int) (*domain.WeekData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := domain.WeekKey{Year: year, Week: week}
	if w, ok := m.weeks[key]; ok {
		return w, nil
	}
	m.nextID++
	w := &domain.WeekData{ID: m.nextID, Year: year, WeekNumber: week}
	m.weeks[key] = w
	return w, nil
}

func (m *memoryStore) UpsertSalesForecast(ctx context.Context, id int64, forecast domain.SalesForecast) error {
	return nil
}

func (m *memoryStore) UpsertConsumptionData(ctx context.Context, id int64, ratios domain.ConsumptionRatios) error {
	return nil
}

func (m *memoryStore) GetOrdersForWeek(ctx context.Context, week *domain.WeekData) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.orders[week.ID]
	out := make([]domain.Order, len(src))
	copy(out, src)
	for i := range out {
		out[i].WeekData = week
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out, nil
}

func (m *memoryStore) CreateInitialOrders(ctx context.Context, weekDataID int64, dates []domain.Date) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := make([]domain.Order, len(dates))
	for i, d := range dates {
		m.nextID++
		orders[i] = domain.Order{ID: m.nextID, WeekDataID: weekDataID, OrderNumber: i + 1, DeliveryDate: d}
	}
	m.orders[weekDataID] = orders
	return orders, nil
}

func (m *memoryStore) findOrder(id int64) (*domain.Order, error) {
	for _, orders := range m.orders {
		for i := range orders {
			if orders[i].ID == id {
				return &orders[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: id %d", domain.ErrOrderNotFound, id)
}

func setOrDelete(q *domain.ProductQuantities, productID int64, value *float64) {
	if value == nil {
		delete(*q, productID)
		return
	}
	if *q == nil {
		*q = domain.ProductQuantities{}
	}
	(*q)[productID] = *value
}

func (m *memoryStore) UpdateOrderStock(ctx context.Context, orderID, productID int64, value *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, err := m.findOrder(orderID)
	if err != nil {
		return err
	}
	setOrDelete(&o.RealStock, productID, value)
	m.updates++
	return nil
}

func (m *memoryStore) UpdateOrderQuantity(ctx context.Context, orderID, productID int64, value *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, err := m.findOrder(orderID)
	if err != nil {
		return err
	}
	setOrDelete(&o.OrderedQuantities, productID, value)
	m.updates++
	return nil
}

func (m *memoryStore) SetTheoreticalStock(ctx context.Context, orderID int64, stock domain.ProductQuantities) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, err := m.findOrder(orderID)
	if err != nil {
		return err
	}
	o.TheoreticalStock = stock
	return nil
}

func (m *memoryStore) GetProducts(ctx context.Context) ([]domain.Product, error) {
	return m.products, nil
}

func (m *memoryStore) GetCategories(ctx context.Context) ([]domain.Category, error) {
	return nil, nil
}

type countingCache struct {
	mu          sync.Mutex
	plans       map[domain.WeekKey]*domain.WeekPlan
	hits        int
	invalidated int
}

func newCountingCache() *countingCache {
	return &countingCache{plans: map[domain.WeekKey]*domain.WeekPlan{}}
}

func (c *countingCache) GetPlan(ctx context.Context, key domain.WeekKey) (*domain.WeekPlan, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	plan, ok := c.plans[key]
	if ok {
		c.hits++
	}
	return plan, ok, nil
}

func (c *countingCache) SetPlan(ctx context.Context, key domain.WeekKey, plan *domain.WeekPlan) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[key] = plan
	return nil
}

func (c *countingCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans = map[domain.WeekKey]*domain.WeekPlan{}
	c.invalidated++
	return nil
}

type memoryObjects struct {
	objects map[string][]byte
}

func (o *memoryObjects) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for key, data := range o.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (o *memoryObjects) DownloadObject(ctx context.Context, key string, w io.Writer) error {
	_, err := w.Write(o.objects[key])
	return err
}

func (o *memoryObjects) UploadObject(ctx context.Context, key, contentType string, data []byte) error {
	if o.objects == nil {
		o.objects = map[string][]byte{}
	}
	o.objects[key] = data
	return nil
}

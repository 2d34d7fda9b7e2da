package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/autoorder/internal/config"
	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/redis/go-redis/v9"
)

const weekPlanKeyPrefix = "autoorder:plan:"

// WeekPlanCache stores computed week plans.
type WeekPlanCache interface {
	GetPlan(ctx context.Context, key domain.WeekKey) (*domain.WeekPlan, bool, error)
	SetPlan(ctx context.Context, key domain.WeekKey, plan *domain.WeekPlan) error
	// InvalidateAll drops every cached plan. Plans of consecutive weeks
	// depend on each other, so edits invalidate them all.
	InvalidateAll(ctx context.Context) error
}

type redisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopPlanCache struct{}

func NewWeekPlanCache(cfg config.CacheConfig) (WeekPlanCache, error) {
	if !cfg.Enabled {
		return &noopPlanCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisPlanCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopWeekPlanCache() WeekPlanCache {
	return &noopPlanCache{}
}

func weekPlanKey(key domain.WeekKey) string {
	return weekPlanKeyPrefix + key.String()
}

func (c *redisPlanCache) GetPlan(ctx context.Context, key domain.WeekKey) (*domain.WeekPlan, bool, error) {
	payload, err := c.client.Get(ctx, weekPlanKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var plan domain.WeekPlan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, false, fmt.Errorf("decode week plan cache: %w", err)
	}

	return &plan, true, nil
}

func (c *redisPlanCache) SetPlan(ctx context.Context, key domain.WeekKey, plan *domain.WeekPlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode week plan cache: %w", err)
	}

	if err := c.client.Set(ctx, weekPlanKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisPlanCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, weekPlanKeyPrefix, scanBatchSize)
}

func (c *noopPlanCache) GetPlan(ctx context.Context, key domain.WeekKey) (*domain.WeekPlan, bool, error) {
	return nil, false, nil
}

func (c *noopPlanCache) SetPlan(ctx context.Context, key domain.WeekKey, plan *domain.WeekPlan) error {
	return nil
}

func (c *noopPlanCache) InvalidateAll(ctx context.Context) error {
	return nil
}

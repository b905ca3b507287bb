package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-planner/internal/config"
	"github.com/stemsi/exstem-planner/internal/model"
)

// PlanCache keeps drawn plans in Redis and hands them to the persistence worker.
type PlanCache interface {
	// Get returns the cached plan or nil when there is none.
	Get(ctx context.Context, configurationID string, seed int64) (*model.PlanRecord, error)
	// Store caches rec and queues it for persistence in one round trip.
	Store(ctx context.Context, rec model.PlanRecord) error
	// Invalidate drops every cached plan of a configuration.
	Invalidate(ctx context.Context, configurationID string) error
}

type planCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPlanCache creates a new plan cache.
func NewPlanCache(client *redis.Client, ttl time.Duration) PlanCache {
	return &planCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *planCache) Get(ctx context.Context, configurationID string, seed int64) (*model.PlanRecord, error) {
	data, err := c.client.Get(ctx, config.CacheKey.PlanKey(configurationID, seed)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec model.PlanRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode cached plan: %w", err)
	}
	return &rec, nil
}

func (c *planCache) Store(ctx context.Context, rec model.PlanRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, config.CacheKey.PlanKey(rec.ConfigurationID, rec.Seed), data, c.ttl)
	pipe.RPush(ctx, config.WorkerKey.PersistPlansQueue, data)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *planCache) Invalidate(ctx context.Context, configurationID string) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, config.CacheKey.PlanPattern(configurationID), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

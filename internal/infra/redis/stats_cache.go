package redis

import (
	"context"
	"encoding/json"
	"time"

	"activation-code-admin/internal/domain/model"
)

const statsKey = "admin:code_stats"

// StatsCache keeps the latest aggregate counters for a short TTL so the
// dashboard does not recount the whole table on every poll. Mutating
// operations invalidate it.
type StatsCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewStatsCache(client RedisClient, ttl time.Duration) *StatsCache {
	return &StatsCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *StatsCache) Get(ctx context.Context) (*model.CodeStats, error) {
	data, err := c.client.Get(ctx, statsKey)
	if err != nil {
		return nil, err
	}
	var stats model.CodeStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *StatsCache) Store(ctx context.Context, stats *model.CodeStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKey, data, c.ttl)
}

func (c *StatsCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, statsKey)
}

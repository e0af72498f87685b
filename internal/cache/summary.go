package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"fleet-service/internal/model"
)

const summaryKey = "fleet:dashboard:summary"

// SummaryCache keeps the dashboard aggregate in redis between lifecycle
// writes. Callers treat a nil *SummaryCache as caching disabled.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewSummaryCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl, log: log}
}

// Get returns the cached summary, or nil on a miss.
func (c *SummaryCache) Get(ctx context.Context) (*model.DashboardSummary, error) {
	data, err := c.client.Get(ctx, summaryKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var summary model.DashboardSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *SummaryCache) Set(ctx context.Context, summary *model.DashboardSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey, data, c.ttl).Err()
}

// Invalidate drops the cached summary. Failures are logged, not returned:
// a stale summary expires on its own within the TTL.
func (c *SummaryCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, summaryKey).Err(); err != nil {
		c.log.Warn().Err(err).Msg("summary cache invalidation failed")
	}
}

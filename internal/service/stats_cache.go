package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

const statsCacheKey = "helpdesk:admin:stats"

// StatsCache keeps the admin stats aggregate in Redis for a short TTL.
// Cache failures fall through to the store; the cache is best-effort.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStatsCache constructs the cache, or nil when Redis is absent.
func NewStatsCache(client *redis.Client, cfg config.StatsConfig, logger *zap.Logger) *StatsCache {
	if client == nil {
		return nil
	}
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StatsCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached stats, or nil on miss or cache error.
func (c *StatsCache) Get(ctx context.Context) *Stats {
	if c == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("stats cache read failed", zap.Error(err))
		}
		return nil
	}
	var stats Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return &stats
}

// Set stores the stats aggregate with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, stats *Stats) {
	if c == nil || stats == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsCacheKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("stats cache write failed", zap.Error(err))
	}
}

package chunk

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"worldgen-server/internal/shared/redis"
)

const statsKeyPrefix = "worldgen:chunk_stats:"

// StatsCache is a read-through cache for chunk stats. A nil cache, or one
// without a client, never hits and never fails.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewStatsCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *StatsCache {
	if client == nil {
		return nil
	}
	return &StatsCache{client: client, ttl: ttl, logger: logger}
}

func statsKey(chunkID string) string {
	return statsKeyPrefix + chunkID
}

func (c *StatsCache) Get(ctx context.Context, chunkID string) (*Stats, bool) {
	if c == nil {
		return nil, false
	}
	logger := c.logger.With("component", "chunk_stats_cache", "operation", "get", "chunk_id", chunkID)

	raw, err := c.client.Get(ctx, statsKey(chunkID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Failed to read cached stats", "error", err)
		}
		return nil, false
	}

	var stats Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		logger.Warn("Discarding undecodable cached stats", "error", err)
		return nil, false
	}
	return &stats, true
}

func (c *StatsCache) Set(ctx context.Context, stats *Stats) {
	if c == nil || stats == nil {
		return
	}
	logger := c.logger.With("component", "chunk_stats_cache", "operation", "set", "chunk_id", stats.ChunkID)

	raw, err := json.Marshal(stats)
	if err != nil {
		logger.Warn("Failed to encode stats", "error", err)
		return
	}
	if err := c.client.Set(ctx, statsKey(stats.ChunkID), raw, c.ttl).Err(); err != nil {
		logger.Warn("Failed to cache stats", "error", err)
	}
}

func (c *StatsCache) Invalidate(ctx context.Context, chunkIDs ...string) {
	if c == nil || len(chunkIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(chunkIDs))
	for _, id := range chunkIDs {
		keys = append(keys, statsKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("Failed to invalidate cached stats",
			"component", "chunk_stats_cache", "operation", "invalidate", "error", err)
	}
}

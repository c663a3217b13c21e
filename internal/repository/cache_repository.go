package repository

import (
	"context"
	"encoding/json"
	"time"

	"progress-service/internal/models"

	"github.com/redis/go-redis/v9"
)

// CacheRepository keeps a short-lived copy of the unified progress document so
// dashboard reads don't hit Mongo on every render. Writes always invalidate.
type CacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheRepository(client *redis.Client, ttl time.Duration) *CacheRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CacheRepository{client: client, ttl: ttl}
}

func progressKey(userID string) string {
	return "progress:unified:" + userID
}

// GetProgress returns nil on a miss or any cache failure; the cache is best effort.
func (c *CacheRepository) GetProgress(ctx context.Context, userID string) *models.UnifiedProgress {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, progressKey(userID)).Bytes()
	if err != nil {
		return nil
	}
	var progress models.UnifiedProgress
	if err := json.Unmarshal(raw, &progress); err != nil {
		return nil
	}
	return &progress
}

func (c *CacheRepository) SetProgress(ctx context.Context, progress *models.UnifiedProgress) {
	if c == nil || c.client == nil || progress == nil {
		return
	}
	raw, err := json.Marshal(progress)
	if err != nil {
		return
	}
	c.client.Set(ctx, progressKey(progress.UserID), raw, c.ttl)
}

func (c *CacheRepository) InvalidateProgress(ctx context.Context, userID string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, progressKey(userID))
}

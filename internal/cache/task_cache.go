package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/todo-service/internal/domain"
)

// TaskCache caches per-owner task listings. Implementations are best effort:
// a cache failure must never fail the request it serves.
type TaskCache interface {
	Get(ctx context.Context, owner string) ([]domain.Task, bool)
	Set(ctx context.Context, owner string, tasks []domain.Task)
	Invalidate(ctx context.Context, owner string)
}

type redisTaskCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisTaskCache builds a Redis-backed task cache.
func NewRedisTaskCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) TaskCache {
	return &redisTaskCache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(owner string) string {
	return "tasks:" + owner
}

func (c *redisTaskCache) Get(ctx context.Context, owner string) ([]domain.Task, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(owner)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("task cache get failed", zap.String("owner", owner), zap.Error(err))
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		c.logger.Debug("task cache payload corrupt", zap.String("owner", owner), zap.Error(err))
		return nil, false
	}
	return tasks, true
}

func (c *redisTaskCache) Set(ctx context.Context, owner string, tasks []domain.Task) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(owner), raw, c.ttl).Err(); err != nil {
		c.logger.Debug("task cache set failed", zap.String("owner", owner), zap.Error(err))
	}
}

func (c *redisTaskCache) Invalidate(ctx context.Context, owner string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey(owner)).Err(); err != nil {
		c.logger.Debug("task cache invalidate failed", zap.String("owner", owner), zap.Error(err))
	}
}

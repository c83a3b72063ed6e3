// Package cache fronts the duplicate pre-check with redis so re-runs over an
// already-imported partition do not hammer the database with existence
// queries. The cache is advisory: a miss always falls through to Postgres,
// and a nil cache disables it entirely.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "satimport:question"

type ExistenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewExistenceCache(client *redis.Client, ttl time.Duration) *ExistenceCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ExistenceCache{client: client, ttl: ttl}
}

func cacheKey(column, id string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, column, id)
}

// Seen reports whether the identity is known to exist. Redis errors read as
// "unknown" so the caller falls back to the database.
func (c *ExistenceCache) Seen(ctx context.Context, column, id string) bool {
	if c == nil || c.client == nil || id == "" {
		return false
	}
	n, err := c.client.Exists(ctx, cacheKey(column, id)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

// MarkSeen records an identity as existing. Failures are ignored; the cache
// only ever saves work.
func (c *ExistenceCache) MarkSeen(ctx context.Context, column, id string) {
	if c == nil || c.client == nil || id == "" {
		return
	}
	_ = c.client.Set(ctx, cacheKey(column, id), "1", c.ttl).Err()
}

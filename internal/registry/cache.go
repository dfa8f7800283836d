package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/discount-engine/internal/obs"
)

const cacheKeyPrefix = "discount:def:"

// Cache keeps resolved definitions in Redis to spare the database on the hot
// run path. A nil cache is a no-op.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

// Get loads a cached definition. The boolean reports a cache hit.
func (c *Cache) Get(ctx context.Context, id string) (Definition, bool) {
	if c == nil || c.Client == nil {
		return Definition{}, false
	}
	data, err := c.Client.Get(ctx, cacheKeyPrefix+id).Bytes()
	if err != nil {
		countCache("miss")
		return Definition{}, false
	}
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		countCache("miss")
		return Definition{}, false
	}
	countCache("hit")
	return def, true
}

// Set stores a definition under its id with the configured TTL.
func (c *Cache) Set(ctx context.Context, def Definition) {
	if c == nil || c.Client == nil || c.TTL <= 0 {
		return
	}
	data, err := json.Marshal(def)
	if err != nil {
		return
	}
	_ = c.Client.Set(ctx, cacheKeyPrefix+def.ID.String(), data, c.TTL).Err()
}

// Invalidate drops the cached entry for the given id.
func (c *Cache) Invalidate(ctx context.Context, id string) {
	if c == nil || c.Client == nil {
		return
	}
	_ = c.Client.Del(ctx, cacheKeyPrefix+id).Err()
}

func countCache(outcome string) {
	if obs.RegistryCacheTotal != nil {
		obs.RegistryCacheTotal.WithLabelValues(outcome).Inc()
	}
}

package products

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgredis "github.com/angelmondragon/shopfront-backend/pkg/redis"
)

const cacheName = "products"

// cacheStore is the subset of the redis client the catalog cache needs.
type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// Cache stores the serialized product list in redis.
type Cache struct {
	store cacheStore
	ttl   time.Duration
}

// NewCache returns nil when no store is configured, which disables caching.
func NewCache(store cacheStore, ttl time.Duration) *Cache {
	if store == nil {
		return nil
	}
	return &Cache{store: store, ttl: ttl}
}

func (c *Cache) listKey() string {
	return c.store.CacheKey(cacheName, "list")
}

// GetList returns the cached list. ok is false on a miss.
func (c *Cache) GetList(ctx context.Context) (products []models.Product, ok bool, err error) {
	raw, err := c.store.Get(ctx, c.listKey())
	if err != nil {
		if pkgredis.IsMiss(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		return nil, false, err
	}
	return products, true, nil
}

// SetList stores the list with the configured TTL.
func (c *Cache) SetList(ctx context.Context, products []models.Product) error {
	payload, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.listKey(), string(payload), c.ttl)
}

// Invalidate drops the cached list.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.store.Del(ctx, c.listKey())
}

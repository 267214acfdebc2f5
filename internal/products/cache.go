package products

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/salesdesk-backend/pkg/logger"
)

const productCacheKind = "product"

// Cache is the slice of the redis client the catalog cache needs.
type Cache interface {
	CacheKey(kind, id string) string
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// productCache is a read-through cache of product DTOs. A nil store or a
// non-positive TTL disables it; redis failures are logged and treated as misses.
type productCache struct {
	store Cache
	ttl   time.Duration
	logg  *logger.Logger
}

func newProductCache(store Cache, ttl time.Duration, logg *logger.Logger) *productCache {
	return &productCache{store: store, ttl: ttl, logg: logg}
}

func (c *productCache) enabled() bool {
	return c != nil && c.store != nil && c.ttl > 0
}

func (c *productCache) get(ctx context.Context, id uuid.UUID) (*ProductDTO, bool) {
	if !c.enabled() {
		return nil, false
	}
	var dto ProductDTO
	found, err := c.store.GetJSON(ctx, c.store.CacheKey(productCacheKind, id.String()), &dto)
	if err != nil {
		c.warn(ctx, id, "product cache read failed", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &dto, true
}

func (c *productCache) put(ctx context.Context, dto *ProductDTO) {
	if !c.enabled() || dto == nil {
		return
	}
	if err := c.store.SetJSON(ctx, c.store.CacheKey(productCacheKind, dto.ID.String()), dto, c.ttl); err != nil {
		c.warn(ctx, dto.ID, "product cache write failed", err)
	}
}

func (c *productCache) invalidate(ctx context.Context, id uuid.UUID) {
	if !c.enabled() {
		return
	}
	if err := c.store.Del(ctx, c.store.CacheKey(productCacheKind, id.String())); err != nil {
		c.warn(ctx, id, "product cache invalidation failed", err)
	}
}

func (c *productCache) warn(ctx context.Context, id uuid.UUID, msg string, err error) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithFields(ctx, map[string]any{
		"product_id": id.String(),
		"error":      err.Error(),
	})
	c.logg.Warn(ctx, msg)
}

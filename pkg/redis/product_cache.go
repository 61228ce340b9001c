package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// ProductListVersionKey is bumped on every invalidation. Listings live under
// a per-version key, so a listing computed before an invalidation is written
// to a key nobody reads any more and simply expires.
const ProductListVersionKey = "products:version"

const productListKeyPrefix = "products:all"

// ProductCache keeps the full product listing in Redis
type ProductCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewProductCache returns a cache backed by client. A zero ttl stores
// entries without expiry.
func NewProductCache(client redis.Cmdable, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, ttl: ttl}
}

func productListKey(version int64) string {
	return fmt.Sprintf("%s:v%d", productListKeyPrefix, version)
}

// GetProducts reports a miss as (nil, version, false, nil)
func (c *ProductCache) GetProducts(ctx context.Context) ([]model.Product, int64, bool, error) {
	version, err := c.currentVersion(ctx)
	if err != nil {
		logger.Error("Failed to read product cache version", err)
		return nil, 0, false, err
	}

	data, err := c.client.Get(ctx, productListKey(version)).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Debug("Product cache miss", map[string]interface{}{
			"version": version,
		})
		return nil, version, false, nil
	}
	if err != nil {
		logger.Error("Failed to read product cache", err)
		return nil, 0, false, err
	}

	products, err := decodeProducts(data)
	if err != nil {
		logger.Error("Failed to decode cached products", err)
		return nil, 0, false, err
	}

	logger.Debug("Product cache hit", map[string]interface{}{
		"count":   len(products),
		"version": version,
	})
	return products, version, true, nil
}

func (c *ProductCache) SetProducts(ctx context.Context, version int64, products []model.Product) error {
	data, err := encodeProducts(products)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, productListKey(version), data, c.ttl).Err(); err != nil {
		logger.Error("Failed to write product cache", err)
		return err
	}
	return nil
}

func (c *ProductCache) Invalidate(ctx context.Context) error {
	version, err := c.client.Incr(ctx, ProductListVersionKey).Result()
	if err != nil {
		logger.Error("Failed to invalidate product cache", err)
		return err
	}
	logger.Debug("Product cache invalidated", map[string]interface{}{
		"version": version,
	})
	return nil
}

func (c *ProductCache) currentVersion(ctx context.Context) (int64, error) {
	version, err := c.client.Get(ctx, ProductListVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

func encodeProducts(products []model.Product) ([]byte, error) {
	if products == nil {
		products = []model.Product{}
	}
	return json.Marshal(products)
}

func decodeProducts(data []byte) ([]model.Product, error) {
	var products []model.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, err
	}
	return products, nil
}

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableClient points at a port nothing listens on
func unreachableClient(t *testing.T) *redis.Client {
	c := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { c.Close() })
	return c
}

func TestProductCodec_RoundTrip(t *testing.T) {
	products := []model.Product{
		{ID: "p-1", Name: "Laptop", Price: 999.99, Stock: 10, ImageURL: "https://example.com/laptop.jpg"},
		{ID: "p-2", Name: "Mouse", Price: 29.99, Stock: 0},
	}

	data, err := encodeProducts(products)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"image_url":"https://example.com/laptop.jpg"`)

	decoded, err := decodeProducts(data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "Laptop", decoded[0].Name)
	assert.Equal(t, 29.99, decoded[1].Price)
}

func TestProductCodec_NilEncodesEmptyList(t *testing.T) {
	data, err := encodeProducts(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestProductCodec_RejectsGarbage(t *testing.T) {
	_, err := decodeProducts([]byte("not json"))
	assert.Error(t, err)
}

func TestProductListKey_PerVersion(t *testing.T) {
	assert.Equal(t, "products:all:v0", productListKey(0))
	assert.Equal(t, "products:all:v7", productListKey(7))
	assert.NotEqual(t, productListKey(1), productListKey(2))
}

func TestProductCache_UnreachableServerReturnsError(t *testing.T) {
	cache := NewProductCache(unreachableClient(t), time.Minute)
	ctx := context.Background()

	products, _, hit, err := cache.GetProducts(ctx)
	assert.Error(t, err)
	assert.False(t, hit)
	assert.Nil(t, products)

	assert.Error(t, cache.SetProducts(ctx, 0, []model.Product{{ID: "p-1"}}))
	assert.Error(t, cache.Invalidate(ctx))
}

package products

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/salesdesk-backend/pkg/db"
	"github.com/angelmondragon/salesdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
	"github.com/angelmondragon/salesdesk-backend/pkg/logger"
	"github.com/angelmondragon/salesdesk-backend/pkg/pricing"
)

type memoryCache struct {
	entries map[string][]byte
	gets    int
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) CacheKey(kind, id string) string { return kind + ":" + id }

func (m *memoryCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	m.gets++
	if m.failGet {
		return false, errors.New("redis down")
	}
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *memoryCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func newTestService(t *testing.T, cache Cache) Service {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, db.Wrap(conn), pricing.DefaultPolicy(), cache, time.Minute, logger.Nop())
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, nil, pricing.DefaultPolicy(), nil, 0, logger.Nop()); err == nil {
		t.Fatal("expected error for missing repository")
	}
}

func TestServiceCreateAndPrice(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:     "  Bolt M8 ",
		Category: enums.ProductCategoryHardware,
		PriceTiers: []PriceTierInput{
			tierInput(10000, "1000"),
			tierInput(10, "1200"),
			tierInput(100, "1100"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bolt M8", product.Name)
	require.Len(t, product.PriceTiers, 3)
	assert.Equal(t, 10, product.PriceTiers[0].UpToQuantity)

	cases := []struct {
		qty    int
		price  string
		manual bool
	}{
		{qty: 5, price: "1200"},
		{qty: 50, price: "1100"},
		{qty: 500, price: "1000"},
		{qty: 15000, price: "0", manual: true},
	}
	for _, tc := range cases {
		quote, err := svc.PriceForQuantity(ctx, product.ID, tc.qty)
		require.NoError(t, err)
		assert.True(t, quote.UnitPrice.Equal(decimal.RequireFromString(tc.price)), "qty %d got %s", tc.qty, quote.UnitPrice)
		assert.Equal(t, tc.manual, quote.ManualPriceRequired, "qty %d", tc.qty)
		assert.Equal(t, tc.manual, quote.Tier == nil, "qty %d", tc.qty)
	}
}

func TestServiceCreateRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{Name: "x", Category: "weird", PriceTiers: []PriceTierInput{tierInput(1, "1")}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "x", Category: enums.ProductCategoryOther})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	sku := "SKU-1"
	input := CreateProductInput{SKU: &sku, Name: "x", Category: enums.ProductCategoryOther, PriceTiers: []PriceTierInput{tierInput(1, "1")}}
	_, err = svc.CreateProduct(ctx, input)
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, input)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestServiceGetProductReadsThroughCache(t *testing.T) {
	cache := newMemoryCache()
	svc := newTestService(t, cache)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:       "Cached",
		Category:   enums.ProductCategorySoftware,
		PriceTiers: []PriceTierInput{tierInput(10, "99")},
	})
	require.NoError(t, err)

	_, err = svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, cache.entries, 1)

	name := "Renamed"
	tiers := []PriceTierInput{tierInput(20, "80")}
	updated, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{Name: &name, PriceTiers: &tiers})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Empty(t, cache.entries, "update should invalidate the cached product")

	fetched, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, fetched.PriceTiers, 1)
	assert.Equal(t, 20, fetched.PriceTiers[0].UpToQuantity)

	cache.failGet = true
	degraded, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", degraded.Name)
}

func TestServiceDeleteProduct(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	err := svc.DeleteProduct(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "got %v", err)

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:       "Temporary",
		Category:   enums.ProductCategoryService,
		PriceTiers: []PriceTierInput{tierInput(1, "10")},
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, created.ID))

	_, err = svc.GetProduct(ctx, created.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestServiceListProductsRejectsBadCursor(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.ListProducts(context.Background(), ListProductsInput{})
	require.NoError(t, err)

	input := ListProductsInput{}
	input.Pagination.Cursor = "not-base64!"
	_, err = svc.ListProducts(context.Background(), input)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServicePriceForQuantityValidatesQuantity(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.PriceForQuantity(context.Background(), uuid.New(), 0)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

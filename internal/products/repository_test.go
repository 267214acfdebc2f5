package products

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/salesdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	"github.com/angelmondragon/salesdesk-backend/pkg/pagination"
	"github.com/angelmondragon/salesdesk-backend/pkg/pricing"
)

func seedProductAt(t *testing.T, conn *gorm.DB, name string, category enums.ProductCategory, createdAt time.Time) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:      name,
		Category:  category,
		CreatedAt: createdAt,
		PriceTiers: []models.ProductPriceTier{
			{UpToQuantity: 100, Price: decimal.RequireFromString("5")},
		},
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func TestRepositoryCreateAndFindOrdersTiers(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	product := &models.Product{
		Name:     "Bolt M8",
		Category: enums.ProductCategoryHardware,
		PriceTiers: []models.ProductPriceTier{
			{UpToQuantity: 10000, Price: decimal.RequireFromString("1000")},
			{UpToQuantity: 10, Price: decimal.RequireFromString("1200")},
		},
	}
	require.NoError(t, repo.Create(ctx, product))

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, found.PriceTiers, 2)
	assert.Equal(t, 10, found.PriceTiers[0].UpToQuantity)
	assert.Equal(t, 10000, found.PriceTiers[1].UpToQuantity)
}

func TestRepositoryReplaceTiersAndDelete(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	product := dbtest.SeedProduct(t, conn, "Widget", dbtest.ScenarioTiers()...)
	require.NoError(t, repo.ReplaceTiers(ctx, product.ID, []models.ProductPriceTier{
		{UpToQuantity: 500, Price: decimal.RequireFromString("7.5")},
	}))

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, found.PriceTiers, 1)
	assert.True(t, found.PriceTiers[0].Price.Equal(decimal.RequireFromString("7.5")))

	require.NoError(t, repo.Delete(ctx, product.ID))
	_, err = repo.FindByID(ctx, product.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, product.ID), gorm.ErrRecordNotFound)
}

func TestRepositoryListPaginatesAndFilters(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	newest := seedProductAt(t, conn, "Gamma license", enums.ProductCategorySoftware, base.Add(3*time.Minute))
	middle := seedProductAt(t, conn, "Beta bracket", enums.ProductCategoryHardware, base.Add(2*time.Minute))
	oldest := seedProductAt(t, conn, "Alpha bracket", enums.ProductCategoryHardware, base.Add(time.Minute))

	page, next, err := repo.List(ctx, listQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, newest.ID, page[0].ID)
	assert.Equal(t, middle.ID, page[1].ID)
	require.NotNil(t, next)

	rest, last, err := repo.List(ctx, listQuery{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, oldest.ID, rest[0].ID)
	assert.Nil(t, last)

	category := enums.ProductCategoryHardware
	filtered, _, err := repo.List(ctx, listQuery{Category: &category, Search: "ALPHA"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, oldest.ID, filtered[0].ID)

	decoded, err := pagination.ParseCursor(pagination.EncodeCursor(*next))
	require.NoError(t, err)
	assert.Equal(t, middle.ID, decoded.ID)
}

func TestRepositoryCountQuoteReferences(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	product := dbtest.SeedProduct(t, conn, "Widget", dbtest.ScenarioTiers()...)
	count, err := repo.CountQuoteReferences(ctx, product.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	user := dbtest.SeedUser(t, conn, enums.UserRoleSales)
	customer := dbtest.SeedCustomer(t, conn, "Acme")
	quote := &models.Quote{
		Number:     1,
		CustomerID: customer.ID,
		CreatedBy:  user.ID,
		Status:     enums.QuoteStatusDraft,
		Currency:   "USD",
		TaxRate:    decimal.RequireFromString("0.08"),
		Items: []models.QuoteLineItem{{
			ProductID:   product.ID,
			Description: "Widget",
			Quantity:    5,
			UnitPrice:   decimal.RequireFromString("1200"),
			LineTotal:   decimal.RequireFromString("6000"),
		}},
	}
	quote.ApplyTotals(pricing.DefaultPolicy().ComputeTotals([]pricing.LineItem{quote.Items[0].Priced()}))
	require.NoError(t, conn.Create(quote).Error)

	count, err = repo.CountQuoteReferences(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

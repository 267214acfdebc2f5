// Package dbtest opens migrated in-memory SQLite databases for repository and
// service tests.
package dbtest

import (
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
)

// Open returns a private in-memory database migrated from the gorm models.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.New(log.New(io.Discard, "", 0), gormlogger.Config{LogLevel: gormlogger.Silent}),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// SeedUser inserts an active user with the given role.
func SeedUser(t testing.TB, conn *gorm.DB, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Email:        fmt.Sprintf("user_%s@salesdesk.test", uuid.NewString()[:8]),
		PasswordHash: "hash",
		Name:         "Test User",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

// SeedCustomer inserts a customer with a unique email.
func SeedCustomer(t testing.TB, conn *gorm.DB, company string) *models.Customer {
	t.Helper()
	customer := &models.Customer{
		CompanyName: company,
		ContactName: "Pat Buyer",
		Email:       fmt.Sprintf("buyer_%s@example.test", uuid.NewString()[:8]),
	}
	require.NoError(t, conn.Create(customer).Error)
	return customer
}

// Tier is a shorthand for seeding price tiers.
type Tier struct {
	UpTo  int
	Price string
}

// SeedProduct inserts a hardware product with the provided tiers.
func SeedProduct(t testing.TB, conn *gorm.DB, name string, tiers ...Tier) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Category: enums.ProductCategoryHardware,
	}
	for _, tier := range tiers {
		product.PriceTiers = append(product.PriceTiers, models.ProductPriceTier{
			UpToQuantity: tier.UpTo,
			Price:        decimal.RequireFromString(tier.Price),
		})
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

// ScenarioTiers are the 10/100/10000 tiers priced 1200/1100/1000.
func ScenarioTiers() []Tier {
	return []Tier{
		{UpTo: 10, Price: "1200"},
		{UpTo: 100, Price: "1100"},
		{UpTo: 10000, Price: "1000"},
	}
}

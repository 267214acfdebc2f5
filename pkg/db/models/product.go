package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	"github.com/angelmondragon/salesdesk-backend/pkg/pricing"
)

// Product represents a catalog entry priced by quantity tiers.
type Product struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	SKU         *string               `gorm:"column:sku;uniqueIndex"`
	Name        string                `gorm:"column:name;not null"`
	Category    enums.ProductCategory `gorm:"column:category;type:product_category;not null"`
	Description *string               `gorm:"column:description"`
	PriceTiers  []ProductPriceTier    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Tiers converts the stored rows into pricing tiers.
func (p Product) Tiers() []pricing.Tier {
	tiers := make([]pricing.Tier, 0, len(p.PriceTiers))
	for _, row := range p.PriceTiers {
		tiers = append(tiers, pricing.Tier{UpToQuantity: row.UpToQuantity, Price: row.Price})
	}
	return tiers
}

// ProductPriceTier stores one (ceiling, unit price) row for a product.
type ProductPriceTier struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_product_price_tiers_ceiling"`
	UpToQuantity int             `gorm:"column:up_to_quantity;not null;uniqueIndex:idx_product_price_tiers_ceiling"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(14,4);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (t *ProductPriceTier) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

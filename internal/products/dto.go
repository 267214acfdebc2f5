package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	"github.com/angelmondragon/salesdesk-backend/pkg/pagination"
	"github.com/angelmondragon/salesdesk-backend/pkg/pricing"
)

// ProductDTO represents the catalog payload returned to clients and cached in redis.
type ProductDTO struct {
	ID          uuid.UUID             `json:"id"`
	SKU         *string               `json:"sku,omitempty"`
	Name        string                `json:"name"`
	Category    enums.ProductCategory `json:"category"`
	Description *string               `json:"description,omitempty"`
	PriceTiers  []pricing.Tier        `json:"price_tiers"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// NewProductDTO builds a DTO from the persisted model with tiers in ascending order.
func NewProductDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:          product.ID,
		SKU:         product.SKU,
		Name:        product.Name,
		Category:    product.Category,
		Description: product.Description,
		PriceTiers:  pricing.SortTiers(product.Tiers()),
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

// HasPricing reports whether any tier is configured.
func (p *ProductDTO) HasPricing() bool {
	return p != nil && len(p.PriceTiers) > 0
}

// PriceTierInput is one tier as submitted by a client.
type PriceTierInput struct {
	UpToQuantity int
	Price        decimal.Decimal
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU         *string
	Name        string
	Category    enums.ProductCategory
	Description *string
	PriceTiers  []PriceTierInput
}

// UpdateProductInput holds optional mutation values for a product. A non-nil
// PriceTiers replaces the whole tier list.
type UpdateProductInput struct {
	SKU         *string
	Name        *string
	Category    *enums.ProductCategory
	Description *string
	PriceTiers  *[]PriceTierInput
}

// ListProductsInput captures the catalog list filters.
type ListProductsInput struct {
	Category   *enums.ProductCategory
	Query      string
	Pagination pagination.Params
}

// ProductListResult wraps a page of products and the cursor for the next one.
type ProductListResult struct {
	Items  []ProductDTO `json:"items"`
	Cursor string       `json:"cursor"`
}

// PriceQuote is the resolver's answer for a product and quantity.
type PriceQuote struct {
	ProductID           uuid.UUID       `json:"product_id"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	LineTotal           decimal.Decimal `json:"line_total"`
	Tier                *pricing.Tier   `json:"tier,omitempty"`
	ManualPriceRequired bool            `json:"manual_price_required"`
	NoPriceConfigured   bool            `json:"no_price_configured"`
}

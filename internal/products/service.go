package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/salesdesk-backend/pkg/db"
	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
	"github.com/angelmondragon/salesdesk-backend/pkg/logger"
	"github.com/angelmondragon/salesdesk-backend/pkg/pagination"
	"github.com/angelmondragon/salesdesk-backend/pkg/pricing"
)

// Service exposes catalog management and tier price lookups.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	PriceForQuantity(ctx context.Context, productID uuid.UUID, quantity int) (*PriceQuote, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo   Repository
	tx     txRunner
	policy pricing.Policy
	cache  *productCache
	logg   *logger.Logger
}

// NewService constructs a catalog service. cache may be nil, in which case
// every read goes to the database.
func NewService(repo Repository, tx txRunner, policy pricing.Policy, cache Cache, cacheTTL time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		policy: policy,
		cache:  newProductCache(cache, cacheTTL, logg),
		logg:   logg,
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	tiers, err := normalizeTiers(s.policy, input.PriceTiers)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		SKU:         normalizeOptional(input.SKU),
		Name:        name,
		Category:    input.Category,
		Description: normalizeOptional(input.Description),
		PriceTiers:  tiers,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	ctx = s.logg.WithField(ctx, "product_id", product.ID.String())
	s.logg.Info(ctx, "product created")
	return NewProductDTO(product), nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	var tiers []models.ProductPriceTier
	if input.PriceTiers != nil {
		normalized, err := normalizeTiers(s.policy, *input.PriceTiers)
		if err != nil {
			return nil, err
		}
		tiers = normalized
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
			}
			product.Name = name
		}
		if input.SKU != nil {
			product.SKU = normalizeOptional(input.SKU)
		}
		if input.Category != nil {
			if !input.Category.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
			}
			product.Category = *input.Category
		}
		if input.Description != nil {
			product.Description = normalizeOptional(input.Description)
		}

		if err := repo.Update(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "sku already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		if input.PriceTiers != nil {
			if err := repo.ReplaceTiers(ctx, productID, tiers); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace price tiers")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.invalidate(ctx, productID)
	return s.load(ctx, productID)
}

func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		refs, err := repo.CountQuoteReferences(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count product references")
		}
		if refs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "product is referenced by quotes").
				WithDetails(map[string]any{"quote_line_items": refs})
		}
		if err := repo.Delete(ctx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.invalidate(ctx, productID)
	return nil
}

// GetProduct returns the product, reading through the redis cache when one is
// configured.
func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	if dto, ok := s.cache.get(ctx, productID); ok {
		return dto, nil
	}
	dto, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.cache.put(ctx, dto)
	return dto, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if input.Category != nil && !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, next, err := s.repo.List(ctx, listQuery{
		Category: input.Category,
		Search:   input.Query,
		Limit:    input.Pagination.Limit,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *NewProductDTO(&rows[i]))
	}
	result := &ProductListResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

// PriceForQuantity previews what a new line item for the product would cost.
func (s *service) PriceForQuantity(ctx context.Context, productID uuid.UUID, quantity int) (*PriceQuote, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than 0")
	}
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	item := s.policy.PriceNewItem(quantity, nil, product.PriceTiers)
	quote := &PriceQuote{
		ProductID:           productID,
		Quantity:            quantity,
		UnitPrice:           item.Price,
		LineTotal:           pricing.LineTotal(item),
		ManualPriceRequired: item.ManualPrice,
		NoPriceConfigured:   !product.HasPricing(),
	}
	if !item.ManualPrice {
		if tier, ok := pricing.SelectTier(product.PriceTiers, quantity); ok {
			quote.Tier = &tier
		}
	}
	return quote, nil
}

func (s *service) load(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return NewProductDTO(product), nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

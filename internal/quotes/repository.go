package quotes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	"github.com/angelmondragon/salesdesk-backend/pkg/pagination"
)

// Repository persists quotes and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, quote *models.Quote) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	UpdateHeader(ctx context.Context, quote *models.Quote) error
	CreateItem(ctx context.Context, item *models.QuoteLineItem) error
	UpdateItem(ctx context.Context, item *models.QuoteLineItem) error
	DeleteItem(ctx context.Context, quoteID, itemID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query listQuery) ([]models.Quote, *pagination.Cursor, error)
	CustomerExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type listQuery struct {
	Status     *enums.QuoteStatus
	CustomerID *uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// NextNumber returns MAX(number)+1. Callers insert inside the same transaction
// and retry when a concurrent writer claimed the number first.
func (r *repository) NextNumber(ctx context.Context) (int64, error) {
	var current int64
	err := r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Select("COALESCE(MAX(number), 0)").
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (r *repository) Create(ctx context.Context, quote *models.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	err := r.withDetail(r.db.WithContext(ctx)).First(&quote, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// FindForUpdate row-locks the quote on Postgres before loading it with its lines.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	if r.db.Dialector.Name() == "postgres" {
		var locked models.Quote
		err := r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&locked, "id = ?", id).Error
		if err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

func (r *repository) UpdateHeader(ctx context.Context, quote *models.Quote) error {
	return r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("id = ?", quote.ID).
		Updates(map[string]any{
			"status":      quote.Status,
			"notes":       quote.Notes,
			"valid_until": quote.ValidUntil,
			"subtotal":    quote.Subtotal,
			"tax":         quote.Tax,
			"total":       quote.Total,
			"sent_at":     quote.SentAt,
			"decided_at":  quote.DecidedAt,
		}).Error
}

func (r *repository) CreateItem(ctx context.Context, item *models.QuoteLineItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) UpdateItem(ctx context.Context, item *models.QuoteLineItem) error {
	return r.db.WithContext(ctx).
		Model(&models.QuoteLineItem{}).
		Where("id = ? AND quote_id = ?", item.ID, item.QuoteID).
		Updates(map[string]any{
			"quantity":        item.Quantity,
			"unit_price":      item.UnitPrice,
			"manual_price":    item.ManualPrice,
			"price_confirmed": item.PriceConfirmed,
			"line_total":      item.LineTotal,
			"warning":         item.Warning,
		}).Error
}

func (r *repository) DeleteItem(ctx context.Context, quoteID, itemID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.QuoteLineItem{}, "id = ? AND quote_id = ?", itemID, quoteID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	conn := r.db.WithContext(ctx)
	if err := conn.Where("quote_id = ?", id).Delete(&models.QuoteLineItem{}).Error; err != nil {
		return err
	}
	result := conn.Delete(&models.Quote{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, query listQuery) ([]models.Quote, *pagination.Cursor, error) {
	q := r.withDetail(r.db.WithContext(ctx).Model(&models.Quote{}))
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	if query.CustomerID != nil {
		q = q.Where("customer_id = ?", *query.CustomerID)
	}
	if query.Cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", query.Cursor.CreatedAt, query.Cursor.CreatedAt, query.Cursor.ID)
	}

	var rows []models.Quote
	if err := q.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(query.Limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Page(rows, query.Limit, func(q models.Quote) pagination.Cursor {
		return pagination.Cursor{CreatedAt: q.CreatedAt, ID: q.ID}
	})
	return page, next, nil
}

func (r *repository) CustomerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *repository) withDetail(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Customer").
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") })
}

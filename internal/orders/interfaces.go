package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	"github.com/angelmondragon/salesdesk-backend/pkg/pagination"
)

// Repository captures the persistence operations required by the orders domain.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByQuoteID(ctx context.Context, quoteID uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, order *models.Order) error
	List(ctx context.Context, filters ListFilters, limit int, cursor *pagination.Cursor) ([]models.Order, *pagination.Cursor, error)
	FindQuoteForConversion(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error)
}

// ListFilters narrows the orders list.
type ListFilters struct {
	Status     *enums.OrderStatus
	CustomerID *uuid.UUID
}

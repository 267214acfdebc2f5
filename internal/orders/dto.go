package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	"github.com/angelmondragon/salesdesk-backend/pkg/pagination"
)

// OrderLineDTO is the frozen copy of a quote line.
type OrderLineDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ManualPrice bool            `json:"manual_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID           uuid.UUID         `json:"id"`
	Number       string            `json:"number"`
	QuoteID      uuid.UUID         `json:"quote_id"`
	CustomerID   uuid.UUID         `json:"customer_id"`
	CustomerName string            `json:"customer_name,omitempty"`
	CreatedBy    uuid.UUID         `json:"created_by"`
	Status       enums.OrderStatus `json:"status"`
	Currency     string            `json:"currency"`
	Notes        *string           `json:"notes,omitempty"`
	TaxRate      decimal.Decimal   `json:"tax_rate"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Tax          decimal.Decimal   `json:"tax"`
	Total        decimal.Decimal   `json:"total"`
	Items        []OrderLineDTO    `json:"items"`
	ConfirmedAt  *time.Time        `json:"confirmed_at,omitempty"`
	FulfilledAt  *time.Time        `json:"fulfilled_at,omitempty"`
	CanceledAt   *time.Time        `json:"canceled_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func NewOrderDTO(o *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:          o.ID,
		Number:      o.DisplayNumber(),
		QuoteID:     o.QuoteID,
		CustomerID:  o.CustomerID,
		CreatedBy:   o.CreatedBy,
		Status:      o.Status,
		Currency:    o.Currency,
		Notes:       o.Notes,
		TaxRate:     o.TaxRate,
		Subtotal:    o.Subtotal,
		Tax:         o.Tax,
		Total:       o.Total,
		Items:       make([]OrderLineDTO, 0, len(o.Items)),
		ConfirmedAt: o.ConfirmedAt,
		FulfilledAt: o.FulfilledAt,
		CanceledAt:  o.CanceledAt,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if o.Customer != nil {
		dto.CustomerName = o.Customer.CompanyName
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, OrderLineDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Position:    item.Position,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			ManualPrice: item.ManualPrice,
			LineTotal:   item.LineTotal,
		})
	}
	return dto
}

// ListOrdersInput captures the list filters and page parameters.
type ListOrdersInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// OrderList wraps a page of orders.
type OrderList struct {
	Items  []OrderDTO `json:"items"`
	Cursor string     `json:"cursor"`
}

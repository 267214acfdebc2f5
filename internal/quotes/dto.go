package quotes

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	"github.com/angelmondragon/salesdesk-backend/pkg/pagination"
)

// LineItemDTO is a quote line as returned to clients.
type LineItemDTO struct {
	ID             uuid.UUID          `json:"id"`
	ProductID      uuid.UUID          `json:"product_id"`
	Position       int                `json:"position"`
	Description    string             `json:"description"`
	Quantity       int                `json:"quantity"`
	UnitPrice      decimal.Decimal    `json:"unit_price"`
	ManualPrice    bool               `json:"manual_price"`
	PriceConfirmed bool               `json:"price_confirmed"`
	LineTotal      decimal.Decimal    `json:"line_total"`
	Warning        *enums.LineWarning `json:"warning,omitempty"`
}

// QuoteDTO is the full quote payload including its persisted totals snapshot.
type QuoteDTO struct {
	ID           uuid.UUID         `json:"id"`
	Number       string            `json:"number"`
	CustomerID   uuid.UUID         `json:"customer_id"`
	CustomerName string            `json:"customer_name,omitempty"`
	CreatedBy    uuid.UUID         `json:"created_by"`
	Status       enums.QuoteStatus `json:"status"`
	Currency     string            `json:"currency"`
	Notes        *string           `json:"notes,omitempty"`
	ValidUntil   *time.Time        `json:"valid_until,omitempty"`
	TaxRate      decimal.Decimal   `json:"tax_rate"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Tax          decimal.Decimal   `json:"tax"`
	Total        decimal.Decimal   `json:"total"`
	HasWarnings  bool              `json:"has_warnings"`
	Items        []LineItemDTO     `json:"items"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	DecidedAt    *time.Time        `json:"decided_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// NewQuoteDTO maps the persisted quote and its lines.
func NewQuoteDTO(q *models.Quote) *QuoteDTO {
	dto := &QuoteDTO{
		ID:         q.ID,
		Number:     q.DisplayNumber(),
		CustomerID: q.CustomerID,
		CreatedBy:  q.CreatedBy,
		Status:     q.Status,
		Currency:   q.Currency,
		Notes:      q.Notes,
		ValidUntil: q.ValidUntil,
		TaxRate:    q.TaxRate,
		Subtotal:   q.Subtotal,
		Tax:        q.Tax,
		Total:      q.Total,
		Items:      make([]LineItemDTO, 0, len(q.Items)),
		SentAt:     q.SentAt,
		DecidedAt:  q.DecidedAt,
		CreatedAt:  q.CreatedAt,
		UpdatedAt:  q.UpdatedAt,
	}
	if q.Customer != nil {
		dto.CustomerName = q.Customer.CompanyName
	}
	for _, item := range q.Items {
		line := LineItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Position:       item.Position,
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			ManualPrice:    item.ManualPrice,
			PriceConfirmed: item.PriceConfirmed,
			LineTotal:      item.LineTotal,
		}
		if item.Warning != nil {
			warning := enums.LineWarning(*item.Warning)
			line.Warning = &warning
			dto.HasWarnings = true
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}

// LineItemInput describes a line to add. A non-nil UnitPrice is a manual price
// and bypasses tier resolution.
type LineItemInput struct {
	ProductID   uuid.UUID
	Description *string
	Quantity    int
	UnitPrice   *decimal.Decimal
}

// CreateQuoteInput holds the payload for a new draft quote.
type CreateQuoteInput struct {
	CustomerID uuid.UUID
	Notes      *string
	ValidUntil *time.Time
	Items      []LineItemInput
}

// UpdateQuoteInput edits the draft header.
type UpdateQuoteInput struct {
	Notes      *string
	ValidUntil *time.Time
}

// ListQuotesInput captures list filters.
type ListQuotesInput struct {
	Status     *enums.QuoteStatus
	CustomerID *uuid.UUID
	Pagination pagination.Params
}

// QuoteListResult wraps a page of quotes.
type QuoteListResult struct {
	Items  []QuoteDTO `json:"items"`
	Cursor string     `json:"cursor"`
}

// PreviewInput is an unsaved list of lines to price.
type PreviewInput struct {
	Items []LineItemInput
}

// PreviewLine is one priced line of a preview.
type PreviewLine struct {
	ProductID   uuid.UUID          `json:"product_id"`
	Description string             `json:"description"`
	Quantity    int                `json:"quantity"`
	UnitPrice   decimal.Decimal    `json:"unit_price"`
	ManualPrice bool               `json:"manual_price"`
	LineTotal   decimal.Decimal    `json:"line_total"`
	Warning     *enums.LineWarning `json:"warning,omitempty"`
}

// PreviewResult carries priced lines and the totals a quote with them would have.
type PreviewResult struct {
	Items    []PreviewLine   `json:"items"`
	Currency string          `json:"currency"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

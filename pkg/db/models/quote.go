package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	"github.com/angelmondragon/salesdesk-backend/pkg/pricing"
)

// Quote is a priced offer to a customer with a persisted totals snapshot.
type Quote struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Number     int64             `gorm:"column:number;not null;uniqueIndex"`
	CustomerID uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	Customer   *Customer         `gorm:"foreignKey:CustomerID"`
	CreatedBy  uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	Status     enums.QuoteStatus `gorm:"column:status;type:quote_status;not null;default:'draft'"`
	Currency   string            `gorm:"column:currency;not null"`
	Notes      *string           `gorm:"column:notes"`
	ValidUntil *time.Time        `gorm:"column:valid_until"`
	TaxRate    decimal.Decimal   `gorm:"column:tax_rate;type:numeric(6,4);not null"`
	Subtotal   decimal.Decimal   `gorm:"column:subtotal;type:numeric(14,2);not null"`
	Tax        decimal.Decimal   `gorm:"column:tax;type:numeric(14,2);not null"`
	Total      decimal.Decimal   `gorm:"column:total;type:numeric(14,2);not null"`
	Items      []QuoteLineItem   `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	SentAt     *time.Time        `gorm:"column:sent_at"`
	DecidedAt  *time.Time        `gorm:"column:decided_at"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (q *Quote) BeforeCreate(*gorm.DB) error {
	ensureID(&q.ID)
	return nil
}

// DisplayNumber renders the human quote number, e.g. Q-000123.
func (q Quote) DisplayNumber() string {
	return FormatQuoteNumber(q.Number)
}

// FormatQuoteNumber renders n as Q-000123.
func FormatQuoteNumber(n int64) string {
	return fmt.Sprintf("Q-%06d", n)
}

// ApplyTotals copies a rounded totals snapshot onto the quote.
func (q *Quote) ApplyTotals(t pricing.Totals) {
	rounded := t.RoundCents()
	q.Subtotal = rounded.Subtotal
	q.Tax = rounded.Tax
	q.Total = rounded.Total
}

// QuoteLineItem is one product line on a quote.
type QuoteLineItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	QuoteID     uuid.UUID       `gorm:"column:quote_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Position    int             `gorm:"column:position;not null"`
	Description string          `gorm:"column:description;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(14,4);not null"`
	ManualPrice bool            `gorm:"column:manual_price;not null;default:false"`
	// PriceConfirmed is set once a person entered UnitPrice. A price the
	// override gate merely kept from tier pricing is not confirmed.
	PriceConfirmed bool            `gorm:"column:price_confirmed;not null;default:false"`
	LineTotal      decimal.Decimal `gorm:"column:line_total;type:numeric(14,4);not null"`
	Warning        *string         `gorm:"column:warning"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *QuoteLineItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// Priced returns the pricing view of the line.
func (i QuoteLineItem) Priced() pricing.LineItem {
	return pricing.LineItem{Quantity: i.Quantity, Price: i.UnitPrice, ManualPrice: i.ManualPrice}
}

// SetPriced copies the pricing view back onto the row and refreshes LineTotal.
func (i *QuoteLineItem) SetPriced(item pricing.LineItem) {
	i.Quantity = item.Quantity
	i.UnitPrice = item.Price
	i.ManualPrice = item.ManualPrice
	i.LineTotal = pricing.LineTotal(item)
}

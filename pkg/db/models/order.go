package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
)

// Order is created from an accepted quote and snapshots its lines and totals.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Number      int64             `gorm:"column:number;not null;uniqueIndex"`
	QuoteID     uuid.UUID         `gorm:"column:quote_id;type:uuid;not null;uniqueIndex"`
	CustomerID  uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	Customer    *Customer         `gorm:"foreignKey:CustomerID"`
	CreatedBy   uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Currency    string            `gorm:"column:currency;not null"`
	Notes       *string           `gorm:"column:notes"`
	TaxRate     decimal.Decimal   `gorm:"column:tax_rate;type:numeric(6,4);not null"`
	Subtotal    decimal.Decimal   `gorm:"column:subtotal;type:numeric(14,2);not null"`
	Tax         decimal.Decimal   `gorm:"column:tax;type:numeric(14,2);not null"`
	Total       decimal.Decimal   `gorm:"column:total;type:numeric(14,2);not null"`
	Items       []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ConfirmedAt *time.Time        `gorm:"column:confirmed_at"`
	FulfilledAt *time.Time        `gorm:"column:fulfilled_at"`
	CanceledAt  *time.Time        `gorm:"column:canceled_at"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// DisplayNumber renders the human order number, e.g. O-000042.
func (o Order) DisplayNumber() string {
	return FormatOrderNumber(o.Number)
}

// FormatOrderNumber renders n as O-000042.
func FormatOrderNumber(n int64) string {
	return fmt.Sprintf("O-%06d", n)
}

// OrderLineItem captures the snapshot of each quote line within an order.
type OrderLineItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Position    int             `gorm:"column:position;not null"`
	Description string          `gorm:"column:description;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(14,4);not null"`
	ManualPrice bool            `gorm:"column:manual_price;not null;default:false"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(14,4);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderLineItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

package pricing

import "github.com/shopspring/decimal"

// LineItem is the part of a quote or order row the pricing core reads.
type LineItem struct {
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	ManualPrice bool            `json:"manual_price"`
}

// RequiresManualPrice reports whether quantity is above the threshold.
func (p Policy) RequiresManualPrice(quantity int) bool {
	return quantity > p.threshold()
}

// ApplyQuantityChange runs the override gate for a quantity edit. Above the
// threshold the item switches to manual pricing and keeps its price; at or
// below it the item returns to tier pricing and is repriced for the new
// quantity.
func (p Policy) ApplyQuantityChange(item LineItem, quantity int, tiers []Tier) LineItem {
	item.Quantity = quantity
	if p.RequiresManualPrice(quantity) {
		item.ManualPrice = true
		return item
	}
	item.ManualPrice = false
	item.Price = UnitPriceForQuantity(tiers, quantity)
	return item
}

// PriceNewItem prices a freshly added row. A manual price wins when provided;
// otherwise the gate decides between the resolver and a pending manual price
// (zero until a human enters one).
func (p Policy) PriceNewItem(quantity int, manual *decimal.Decimal, tiers []Tier) LineItem {
	if manual != nil {
		return LineItem{Quantity: quantity, Price: *manual, ManualPrice: true}
	}
	return p.ApplyQuantityChange(LineItem{}, quantity, tiers)
}

package pricing

import "github.com/shopspring/decimal"

// Totals is the derived subtotal/tax/total triple of a quote or order.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// LineTotal returns quantity × price for a single row.
func LineTotal(item LineItem) decimal.Decimal {
	return decimal.NewFromInt(int64(item.Quantity)).Mul(item.Price)
}

// ComputeTotals aggregates items. It reads nothing but its arguments, so two
// calls with the same items always agree.
func (p Policy) ComputeTotals(items []LineItem) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(LineTotal(item))
	}
	tax := subtotal.Mul(p.TaxRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// RoundCents rounds every field to two decimal places for persistence and
// display. Total is re-derived from the rounded parts so the identity
// total = subtotal + tax still holds on stored values.
func (t Totals) RoundCents() Totals {
	subtotal := t.Subtotal.Round(2)
	tax := t.Tax.Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Package pricing holds the tiered unit-price resolver, the manual price
// override gate and the quote totals calculator. Everything here is pure: no
// I/O, no clocks, no shared state.
package pricing

import "github.com/shopspring/decimal"

// DefaultManualPriceThreshold is the quantity above which tier pricing stops
// being trusted and a human has to enter the unit price.
const DefaultManualPriceThreshold = 10000

// DefaultTaxRate is the flat rate applied to quote and order subtotals.
var DefaultTaxRate = decimal.RequireFromString("0.08")

// Policy carries the tunable constants of the pricing core. Callers build one
// from configuration and pass it in. A non-positive threshold falls back to
// DefaultManualPriceThreshold; the tax rate is used as given, so the zero
// value computes untaxed totals. Use DefaultPolicy for the 8% rate.
type Policy struct {
	ManualPriceThreshold int
	TaxRate              decimal.Decimal
}

// DefaultPolicy returns the 10,000 unit threshold and the 8% tax rate.
func DefaultPolicy() Policy {
	return Policy{
		ManualPriceThreshold: DefaultManualPriceThreshold,
		TaxRate:              DefaultTaxRate,
	}
}

// NewPolicy builds a policy, falling back to the default threshold when the
// provided one is not positive. A zero tax rate is kept as is.
func NewPolicy(threshold int, taxRate decimal.Decimal) Policy {
	if threshold <= 0 {
		threshold = DefaultManualPriceThreshold
	}
	if taxRate.IsNegative() {
		taxRate = decimal.Zero
	}
	return Policy{
		ManualPriceThreshold: threshold,
		TaxRate:              taxRate,
	}
}

func (p Policy) threshold() int {
	if p.ManualPriceThreshold <= 0 {
		return DefaultManualPriceThreshold
	}
	return p.ManualPriceThreshold
}

// Threshold returns the effective manual price threshold.
func (p Policy) Threshold() int {
	return p.threshold()
}

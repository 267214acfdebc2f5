package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Tier is a price break: quantities up to and including UpToQuantity are billed
// at Price per unit.
type Tier struct {
	UpToQuantity int             `json:"up_to_quantity"`
	Price        decimal.Decimal `json:"price"`
}

// SortTiers returns a copy of tiers ordered by ascending ceiling. Tiers sharing
// a ceiling keep their input order.
func SortTiers(tiers []Tier) []Tier {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpToQuantity < sorted[j].UpToQuantity
	})
	return sorted
}

// SelectTier returns the tier that prices quantity and false when tiers is
// empty. Quantities above every ceiling land on the highest tier.
func SelectTier(tiers []Tier, quantity int) (Tier, bool) {
	if len(tiers) == 0 {
		return Tier{}, false
	}
	sorted := SortTiers(tiers)
	for _, tier := range sorted {
		if tier.UpToQuantity >= quantity {
			return tier, true
		}
	}
	return sorted[len(sorted)-1], true
}

// UnitPriceForQuantity resolves the unit price for quantity. An empty tier list
// yields zero, which callers must treat as "no price configured".
func UnitPriceForQuantity(tiers []Tier, quantity int) decimal.Decimal {
	tier, ok := SelectTier(tiers, quantity)
	if !ok {
		return decimal.Zero
	}
	return tier.Price
}

// MaxCeiling returns the largest UpToQuantity in tiers, or 0 when empty.
func MaxCeiling(tiers []Tier) int {
	max := 0
	for _, tier := range tiers {
		if tier.UpToQuantity > max {
			max = tier.UpToQuantity
		}
	}
	return max
}

// ClampTierCeiling caps a tier ceiling entered in the catalog at the manual
// price threshold so tiers never reach quantities that require manual pricing.
func (p Policy) ClampTierCeiling(upToQuantity int) int {
	if limit := p.threshold(); upToQuantity > limit {
		return limit
	}
	return upToQuantity
}

package products

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
	"github.com/angelmondragon/salesdesk-backend/pkg/pricing"
)

// normalizeTiers validates the submitted tiers and clamps every ceiling to the
// manual price threshold. When ceilings collide, before or after clamping, the
// first tier in input order wins and later ones are dropped, which is the tier
// the resolver picks for any quantity up to that ceiling. All problems are
// reported in a single validation error.
func normalizeTiers(policy pricing.Policy, inputs []PriceTierInput) ([]models.ProductPriceTier, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one price tier is required")
	}

	var errs error
	seen := make(map[int]struct{}, len(inputs))
	rows := make([]models.ProductPriceTier, 0, len(inputs))
	for i, in := range inputs {
		if in.UpToQuantity <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("price_tiers[%d].up_to_quantity must be greater than 0", i))
			continue
		}
		if in.Price.IsNegative() {
			errs = multierr.Append(errs, fmt.Errorf("price_tiers[%d].price must not be negative", i))
			continue
		}
		ceiling := policy.ClampTierCeiling(in.UpToQuantity)
		if _, dup := seen[ceiling]; dup {
			continue
		}
		seen[ceiling] = struct{}{}
		rows = append(rows, models.ProductPriceTier{UpToQuantity: ceiling, Price: in.Price})
	}

	if errs != nil {
		details := make([]string, 0)
		for _, err := range multierr.Errors(errs) {
			details = append(details, err.Error())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "invalid price tiers").WithDetails(map[string]any{"price_tiers": details})
	}
	return rows, nil
}

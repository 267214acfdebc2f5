package quotes

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/salesdesk-backend/internal/products"
	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
	"github.com/angelmondragon/salesdesk-backend/pkg/metrics"
	"github.com/angelmondragon/salesdesk-backend/pkg/pricing"
)

type catalog map[uuid.UUID]*products.ProductDTO

// loadCatalog resolves every distinct product referenced by the lines. It runs
// outside of any transaction so product reads can be served from the cache.
func (s *service) loadCatalog(ctx context.Context, ids ...uuid.UUID) (catalog, error) {
	out := make(catalog, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		product, err := s.products.GetProduct(ctx, id)
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
				return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "product %s not found", id).
					WithDetails(map[string]any{"product_id": id.String()})
			}
			return nil, err
		}
		out[id] = product
	}
	return out, nil
}

func validateLineInputs(items []LineItemInput) error {
	details := map[string]string{}
	for i, item := range items {
		key := "items[" + strconv.Itoa(i) + "]"
		switch {
		case item.ProductID == uuid.Nil:
			details[key+".product_id"] = "is required"
		case item.Quantity <= 0:
			details[key+".quantity"] = "must be greater than 0"
		case item.UnitPrice != nil && item.UnitPrice.IsNegative():
			details[key+".unit_price"] = "must not be negative"
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid line items").WithDetails(details)
	}
	return nil
}

func productIDs(items []LineItemInput) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// newLine prices a fresh line. A supplied unit price is manual and confirmed;
// otherwise the override gate decides between the tier resolver and a pending
// manual price.
func (s *service) newLine(position int, input LineItemInput, product *products.ProductDTO) models.QuoteLineItem {
	line := models.QuoteLineItem{
		ProductID:      product.ID,
		Position:       position,
		Description:    product.Name,
		PriceConfirmed: input.UnitPrice != nil,
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) != "" {
		line.Description = strings.TrimSpace(*input.Description)
	}
	line.SetPriced(s.policy.PriceNewItem(input.Quantity, input.UnitPrice, product.PriceTiers))
	s.flagLine(&line, product.HasPricing())
	return line
}

// observeSavedLine counts a line once it is persisted on a quote.
func (s *service) observeSavedLine(line models.QuoteLineItem) {
	if line.ManualPrice && !line.PriceConfirmed {
		s.metrics.IncOverride(metrics.OverrideEngaged)
	}
	if line.Warning != nil && enums.LineWarning(*line.Warning) == enums.LineWarningNoPriceConfigured {
		s.metrics.IncUnpricedLine()
	}
}

// requantify runs the override gate for a quantity edit on an existing line.
// A price the gate keeps when it flips the line to manual came from the tiers,
// so it stays unconfirmed until someone enters one.
func (s *service) requantify(line *models.QuoteLineItem, quantity int, product *products.ProductDTO) {
	before := line.Priced()
	after := s.policy.ApplyQuantityChange(before, quantity, product.PriceTiers)
	switch {
	case !before.ManualPrice && after.ManualPrice:
		s.metrics.IncOverride(metrics.OverrideEngaged)
		line.PriceConfirmed = false
	case before.ManualPrice && !after.ManualPrice:
		s.metrics.IncOverride(metrics.OverrideReleased)
	}
	if !after.ManualPrice {
		line.PriceConfirmed = false
	}
	line.SetPriced(after)
	s.flagLine(line, product.HasPricing())
}

// flagLine sets or clears the line warning. Manual lines above the threshold
// need a confirmed price; automatic lines of products without tiers are
// priced at zero and flagged.
func (s *service) flagLine(line *models.QuoteLineItem, hasTiers bool) {
	line.Warning = nil
	var warning enums.LineWarning
	switch {
	case line.ManualPrice:
		if s.policy.RequiresManualPrice(line.Quantity) && !line.PriceConfirmed {
			warning = enums.LineWarningManualPriceRequired
		}
	case !hasTiers:
		warning = enums.LineWarningNoPriceConfigured
	}
	if warning != "" {
		value := warning.String()
		line.Warning = &value
	}
}

// recompute refreshes the persisted totals snapshot from the current lines
// using the tax rate frozen on the quote.
func (s *service) recompute(quote *models.Quote) {
	policy := pricing.NewPolicy(s.policy.Threshold(), quote.TaxRate)
	items := make([]pricing.LineItem, 0, len(quote.Items))
	for _, line := range quote.Items {
		items = append(items, line.Priced())
	}
	quote.ApplyTotals(policy.ComputeTotals(items))
	s.metrics.IncTotalsComputed()
}

func findLine(quote *models.Quote, itemID uuid.UUID) (int, *models.QuoteLineItem) {
	for i := range quote.Items {
		if quote.Items[i].ID == itemID {
			return i, &quote.Items[i]
		}
	}
	return -1, nil
}

func lineWarnings(quote *models.Quote) []map[string]any {
	var out []map[string]any
	for _, line := range quote.Items {
		if line.Warning == nil {
			continue
		}
		out = append(out, map[string]any{
			"item_id":  line.ID.String(),
			"position": line.Position,
			"warning":  *line.Warning,
		})
	}
	return out
}

func nextPosition(quote *models.Quote) int {
	max := 0
	for _, line := range quote.Items {
		if line.Position > max {
			max = line.Position
		}
	}
	return max + 1
}

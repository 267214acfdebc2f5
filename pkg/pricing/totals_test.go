package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeTotalsScenario(t *testing.T) {
	policy := DefaultPolicy()
	totals := policy.ComputeTotals([]LineItem{
		{Quantity: 2, Price: dec("500")},
		{Quantity: 1, Price: dec("750")},
	})
	if !totals.Subtotal.Equal(dec("1750")) {
		t.Fatalf("expected subtotal 1750, got %s", totals.Subtotal)
	}
	if !totals.Tax.Equal(dec("140")) {
		t.Fatalf("expected tax 140, got %s", totals.Tax)
	}
	if !totals.Total.Equal(dec("1890")) {
		t.Fatalf("expected total 1890, got %s", totals.Total)
	}
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := DefaultPolicy().ComputeTotals(nil)
	if !totals.Subtotal.IsZero() || !totals.Tax.IsZero() || !totals.Total.IsZero() {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestComputeTotalsIdentities(t *testing.T) {
	policy := DefaultPolicy()
	items := []LineItem{
		{Quantity: 3, Price: dec("19.99")},
		{Quantity: 12, Price: dec("0.35")},
		{Quantity: 10001, Price: dec("1.01"), ManualPrice: true},
	}

	want := decimal.Zero
	for _, item := range items {
		want = want.Add(decimal.NewFromInt(int64(item.Quantity)).Mul(item.Price))
	}

	first := policy.ComputeTotals(items)
	if !first.Subtotal.Equal(want) {
		t.Fatalf("expected subtotal %s, got %s", want, first.Subtotal)
	}
	if !first.Tax.Equal(first.Subtotal.Mul(DefaultTaxRate)) {
		t.Fatalf("tax mismatch: %s", first.Tax)
	}
	if !first.Total.Equal(first.Subtotal.Add(first.Tax)) {
		t.Fatalf("total mismatch: %s", first.Total)
	}

	second := policy.ComputeTotals(items)
	if !second.Subtotal.Equal(first.Subtotal) || !second.Tax.Equal(first.Tax) || !second.Total.Equal(first.Total) {
		t.Fatalf("expected identical results, got %+v then %+v", first, second)
	}
}

func TestComputeTotalsCustomTaxRate(t *testing.T) {
	policy := NewPolicy(0, dec("0.2"))
	totals := policy.ComputeTotals([]LineItem{{Quantity: 4, Price: dec("25")}})
	if !totals.Tax.Equal(dec("20")) || !totals.Total.Equal(dec("120")) {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if policy.ManualPriceThreshold != DefaultManualPriceThreshold {
		t.Fatalf("expected default threshold, got %d", policy.ManualPriceThreshold)
	}
}

func TestZeroTaxRateIsKept(t *testing.T) {
	items := []LineItem{{Quantity: 4, Price: dec("25")}}
	for name, policy := range map[string]Policy{
		"zero value":     {},
		"explicit zero":  NewPolicy(0, decimal.Zero),
		"negative clamp": NewPolicy(0, dec("-0.05")),
	} {
		totals := policy.ComputeTotals(items)
		if !totals.Tax.IsZero() || !totals.Total.Equal(dec("100")) {
			t.Fatalf("%s: expected untaxed totals, got %+v", name, totals)
		}
		if policy.Threshold() != DefaultManualPriceThreshold {
			t.Fatalf("%s: expected default threshold, got %d", name, policy.Threshold())
		}
	}
}

func TestTotalsRoundCents(t *testing.T) {
	totals := DefaultPolicy().ComputeTotals([]LineItem{{Quantity: 3, Price: dec("0.333")}})
	rounded := totals.RoundCents()
	if rounded.Subtotal.String() != "1" {
		t.Fatalf("expected subtotal 1, got %s", rounded.Subtotal)
	}
	if rounded.Tax.String() != "0.08" {
		t.Fatalf("expected tax 0.08, got %s", rounded.Tax)
	}
	if !rounded.Total.Equal(rounded.Subtotal.Add(rounded.Tax)) {
		t.Fatalf("expected rounded total to equal parts, got %s", rounded.Total)
	}
}

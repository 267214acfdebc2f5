package enums

import "testing"

func TestQuoteStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to QuoteStatus
		ok       bool
	}{
		{QuoteStatusDraft, QuoteStatusSent, true},
		{QuoteStatusDraft, QuoteStatusAccepted, false},
		{QuoteStatusSent, QuoteStatusAccepted, true},
		{QuoteStatusSent, QuoteStatusRejected, true},
		{QuoteStatusSent, QuoteStatusExpired, true},
		{QuoteStatusAccepted, QuoteStatusRejected, false},
		{QuoteStatusRejected, QuoteStatusDraft, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.ok, got)
		}
	}
	if !QuoteStatusDraft.IsEditable() || QuoteStatusSent.IsEditable() {
		t.Fatal("only drafts are editable")
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	if !OrderStatusPending.CanTransitionTo(OrderStatusConfirmed) {
		t.Fatal("pending should confirm")
	}
	if !OrderStatusConfirmed.CanTransitionTo(OrderStatusCanceled) {
		t.Fatal("confirmed should cancel")
	}
	if OrderStatusPending.CanTransitionTo(OrderStatusFulfilled) {
		t.Fatal("pending cannot skip to fulfilled")
	}
	if !OrderStatusFulfilled.IsTerminal() || !OrderStatusCanceled.IsTerminal() {
		t.Fatal("fulfilled and canceled are terminal")
	}
	if OrderStatusPending.IsTerminal() {
		t.Fatal("pending is not terminal")
	}
}

func TestParseHelpers(t *testing.T) {
	if _, err := ParseQuoteStatus("sent"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected error for unknown order status")
	}
	if role, err := ParseUserRole("admin"); err != nil || role != UserRoleAdmin {
		t.Fatalf("unexpected role parse: %v %v", role, err)
	}
	if _, err := ParseProductCategory("flower"); err == nil {
		t.Fatal("expected error for unknown category")
	}
	if !CurrencyEUR.IsValid() || Currency("BTC").IsValid() {
		t.Fatal("currency validity mismatch")
	}
	if !LineWarningNoPriceConfigured.IsValid() || LineWarning("x").IsValid() {
		t.Fatal("line warning validity mismatch")
	}
	if _, err := ParseNotificationType("order_status"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

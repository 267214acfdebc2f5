package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/salesdesk-backend/internal/documents"
	"github.com/angelmondragon/salesdesk-backend/internal/quotes"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
)

type stubQuoteService struct {
	quotes.Service

	actor       uuid.UUID
	created     quotes.CreateQuoteInput
	listed      quotes.ListQuotesInput
	quantity    int
	manualPrice decimal.Decimal
	preview     quotes.PreviewInput
	calls       []string
	err         error
}

func (s *stubQuoteService) result(id uuid.UUID) (*quotes.QuoteDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &quotes.QuoteDTO{ID: id, Number: "Q-000001", Status: enums.QuoteStatusDraft}, nil
}

func (s *stubQuoteService) CreateQuote(_ context.Context, actorID uuid.UUID, input quotes.CreateQuoteInput) (*quotes.QuoteDTO, error) {
	s.actor = actorID
	s.created = input
	return s.result(uuid.New())
}

func (s *stubQuoteService) ListQuotes(_ context.Context, input quotes.ListQuotesInput) (*quotes.QuoteListResult, error) {
	s.listed = input
	return &quotes.QuoteListResult{Items: []quotes.QuoteDTO{}}, nil
}

func (s *stubQuoteService) UpdateItemQuantity(_ context.Context, quoteID, _ uuid.UUID, quantity int) (*quotes.QuoteDTO, error) {
	s.quantity = quantity
	return s.result(quoteID)
}

func (s *stubQuoteService) SetManualPrice(_ context.Context, quoteID, _ uuid.UUID, price decimal.Decimal) (*quotes.QuoteDTO, error) {
	s.manualPrice = price
	return s.result(quoteID)
}

func (s *stubQuoteService) ClearManualPrice(_ context.Context, quoteID, _ uuid.UUID) (*quotes.QuoteDTO, error) {
	s.calls = append(s.calls, "clear")
	return s.result(quoteID)
}

func (s *stubQuoteService) SendQuote(_ context.Context, quoteID uuid.UUID) (*quotes.QuoteDTO, error) {
	s.calls = append(s.calls, "send")
	return s.result(quoteID)
}

func (s *stubQuoteService) AcceptQuote(_ context.Context, quoteID uuid.UUID) (*quotes.QuoteDTO, error) {
	s.calls = append(s.calls, "accept")
	return s.result(quoteID)
}

func (s *stubQuoteService) Preview(_ context.Context, input quotes.PreviewInput) (*quotes.PreviewResult, error) {
	s.preview = input
	if s.err != nil {
		return nil, s.err
	}
	return &quotes.PreviewResult{
		Currency: "USD",
		TaxRate:  decimal.RequireFromString("0.08"),
		Subtotal: decimal.NewFromInt(1750),
		Tax:      decimal.NewFromInt(140),
		Total:    decimal.NewFromInt(1890),
	}, nil
}

type stubDocumentService struct {
	email *documents.Email
	err   error
}

func (s stubDocumentService) QuoteEmail(context.Context, uuid.UUID) (*documents.Email, error) {
	return s.email, s.err
}

func (s stubDocumentService) OrderEmail(context.Context, uuid.UUID) (*documents.Email, error) {
	return s.email, s.err
}

func TestCreateQuote(t *testing.T) {
	actor := uuid.New()
	customerID := uuid.New()
	productID := uuid.New()
	body := `{"customer_id":"` + customerID.String() + `","items":[{"product_id":"` + productID.String() + `","quantity":150},{"product_id":"` + productID.String() + `","quantity":20000,"unit_price":"9.50"}]}`

	t.Run("requires actor", func(t *testing.T) {
		rec := serve(CreateQuote(&stubQuoteService{}, testLogger()), newRequest(http.MethodPost, "/api/v1/quotes", body, nil, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 got %d", rec.Code)
		}
	})

	t.Run("forwards lines", func(t *testing.T) {
		stub := &stubQuoteService{}
		rec := serve(CreateQuote(stub, testLogger()), newRequest(http.MethodPost, "/api/v1/quotes", body, &actor, nil))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.actor != actor || stub.created.CustomerID != customerID {
			t.Fatalf("unexpected create input %+v", stub.created)
		}
		if len(stub.created.Items) != 2 {
			t.Fatalf("expected 2 items got %d", len(stub.created.Items))
		}
		if stub.created.Items[0].UnitPrice != nil {
			t.Fatal("first line should be tier priced")
		}
		if stub.created.Items[1].UnitPrice == nil || !stub.created.Items[1].UnitPrice.Equal(decimal.RequireFromString("9.5")) {
			t.Fatal("second line should carry its manual price")
		}
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		bad := `{"customer_id":"` + customerID.String() + `","items":[{"product_id":"` + productID.String() + `","quantity":0}]}`
		rec := serve(CreateQuote(&stubQuoteService{}, testLogger()), newRequest(http.MethodPost, "/api/v1/quotes", bad, &actor, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})
}

func TestListQuotesFilters(t *testing.T) {
	customerID := uuid.New()
	stub := &stubQuoteService{}
	rec := serve(ListQuotes(stub, testLogger()), newRequest(http.MethodGet, "/api/v1/quotes?status=sent&customer_id="+customerID.String(), "", nil, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if stub.listed.Status == nil || *stub.listed.Status != enums.QuoteStatusSent {
		t.Fatalf("status filter missing: %+v", stub.listed)
	}
	if stub.listed.CustomerID == nil || *stub.listed.CustomerID != customerID {
		t.Fatalf("customer filter missing: %+v", stub.listed)
	}

	for _, query := range []string{"?status=archived", "?customer_id=nope"} {
		rec = serve(ListQuotes(stub, testLogger()), newRequest(http.MethodGet, "/api/v1/quotes"+query, "", nil, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", query, rec.Code)
		}
	}
}

func TestQuoteItemEndpoints(t *testing.T) {
	quoteID := uuid.New()
	itemID := uuid.New()
	params := map[string]string{"quoteId": quoteID.String(), "itemId": itemID.String()}

	stub := &stubQuoteService{}
	rec := serve(UpdateQuoteItemQuantity(stub, testLogger()), newRequest(http.MethodPatch, "/", `{"quantity":15000}`, nil, params))
	if rec.Code != http.StatusOK || stub.quantity != 15000 {
		t.Fatalf("quantity update failed: %d %d", rec.Code, stub.quantity)
	}

	rec = serve(SetQuoteItemManualPrice(stub, testLogger()), newRequest(http.MethodPut, "/", `{"price":"99.99"}`, nil, params))
	if rec.Code != http.StatusOK || !stub.manualPrice.Equal(decimal.RequireFromString("99.99")) {
		t.Fatalf("manual price failed: %d %s", rec.Code, stub.manualPrice)
	}

	rec = serve(SetQuoteItemManualPrice(stub, testLogger()), newRequest(http.MethodPut, "/", `{}`, nil, params))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing price got %d", rec.Code)
	}

	rec = serve(ClearQuoteItemManualPrice(stub, testLogger()), newRequest(http.MethodDelete, "/", "", nil, params))
	if rec.Code != http.StatusOK || len(stub.calls) != 1 || stub.calls[0] != "clear" {
		t.Fatalf("clear manual price failed: %d %v", rec.Code, stub.calls)
	}

	rec = serve(RemoveQuoteItem(stub, testLogger()), newRequest(http.MethodDelete, "/", "", nil, map[string]string{"quoteId": quoteID.String(), "itemId": "bad"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad item id got %d", rec.Code)
	}
}

func TestQuoteTransitions(t *testing.T) {
	quoteID := uuid.New()
	params := map[string]string{"quoteId": quoteID.String()}

	stub := &stubQuoteService{}
	for _, handler := range []http.HandlerFunc{SendQuote(stub, testLogger()), AcceptQuote(stub, testLogger())} {
		if rec := serve(handler, newRequest(http.MethodPost, "/", "", nil, params)); rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
	}
	if len(stub.calls) != 2 || stub.calls[0] != "send" || stub.calls[1] != "accept" {
		t.Fatalf("unexpected calls %v", stub.calls)
	}

	blocked := &stubQuoteService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "quote has lines without a price").WithDetails(map[string]any{"warnings": []string{"manual_price_required"}})}
	rec := serve(SendQuote(blocked, testLogger()), newRequest(http.MethodPost, "/", "", nil, params))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
	code, details := decodeError(t, rec)
	if code != string(pkgerrors.CodeStateConflict) || details["warnings"] == nil {
		t.Fatalf("unexpected error %s %v", code, details)
	}
}

func TestPricingPreview(t *testing.T) {
	productID := uuid.New()
	stub := &stubQuoteService{}
	body := `{"items":[{"product_id":"` + productID.String() + `","quantity":10}]}`
	rec := serve(PricingPreview(stub, testLogger()), newRequest(http.MethodPost, "/api/v1/pricing/preview", body, nil, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var result quotes.PreviewResult
	decodeData(t, rec, &result)
	if !result.Total.Equal(decimal.NewFromInt(1890)) || !result.Tax.Equal(decimal.NewFromInt(140)) {
		t.Fatalf("unexpected totals %+v", result)
	}
	if len(stub.preview.Items) != 1 || stub.preview.Items[0].Quantity != 10 {
		t.Fatalf("unexpected preview input %+v", stub.preview)
	}

	rec = serve(PricingPreview(stub, testLogger()), newRequest(http.MethodPost, "/api/v1/pricing/preview", `{"items":[]}`, nil, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty preview got %d", rec.Code)
	}
}

func TestQuoteEmailHandler(t *testing.T) {
	params := map[string]string{"quoteId": uuid.NewString()}

	ok := stubDocumentService{email: &documents.Email{Subject: "Quote Q-000001 from SalesDesk", HTML: "<p>hi</p>"}}
	rec := serve(QuoteEmail(ok, testLogger()), newRequest(http.MethodGet, "/", "", nil, params))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var email documents.Email
	decodeData(t, rec, &email)
	if email.Subject != "Quote Q-000001 from SalesDesk" || email.HTML != "<p>hi</p>" {
		t.Fatalf("unexpected email %+v", email)
	}

	blocked := stubDocumentService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "quote has unresolved pricing warnings")}
	rec = serve(QuoteEmail(blocked, testLogger()), newRequest(http.MethodGet, "/", "", nil, params))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}

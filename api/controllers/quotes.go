package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/salesdesk-backend/api/middleware"
	"github.com/angelmondragon/salesdesk-backend/api/responses"
	"github.com/angelmondragon/salesdesk-backend/api/validators"
	"github.com/angelmondragon/salesdesk-backend/internal/documents"
	"github.com/angelmondragon/salesdesk-backend/internal/quotes"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
	"github.com/angelmondragon/salesdesk-backend/pkg/logger"
)

type lineItemRequest struct {
	ProductID   uuid.UUID        `json:"product_id" validate:"required"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	Quantity    int              `json:"quantity" validate:"required,gt=0"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
}

func (r lineItemRequest) toInput() quotes.LineItemInput {
	return quotes.LineItemInput{
		ProductID:   r.ProductID,
		Description: r.Description,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
	}
}

func toLineInputs(items []lineItemRequest) []quotes.LineItemInput {
	out := make([]quotes.LineItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, item.toInput())
	}
	return out
}

type createQuoteRequest struct {
	CustomerID uuid.UUID         `json:"customer_id" validate:"required"`
	Notes      *string           `json:"notes,omitempty" validate:"omitempty,max=4000"`
	ValidUntil *time.Time        `json:"valid_until,omitempty"`
	Items      []lineItemRequest `json:"items" validate:"omitempty,dive"`
}

type updateQuoteRequest struct {
	Notes      *string    `json:"notes,omitempty" validate:"omitempty,max=4000"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

type itemQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type manualPriceRequest struct {
	Price *decimal.Decimal `json:"price" validate:"required"`
}

func CreateQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := middleware.ActorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.CreateQuote(r.Context(), actorID, quotes.CreateQuoteInput{
			CustomerID: payload.CustomerID,
			Notes:      payload.Notes,
			ValidUntil: payload.ValidUntil,
			Items:      toLineInputs(payload.Items),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, quote)
	}
}

func GetQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return quoteAction(logg, svc.GetQuote)
}

// ListQuotes supports ?status=, ?customer_id=, ?limit= and ?cursor=.
func ListQuotes(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := optionalQueryUUID(r, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := quotes.ListQuotesInput{CustomerID: customerID, Pagination: page}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseQuoteStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": "status"}))
				return
			}
			input.Status = &status
		}

		list, err := svc.ListQuotes(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func UpdateQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, err := uuidParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.UpdateQuote(r.Context(), quoteID, quotes.UpdateQuoteInput{
			Notes:      payload.Notes,
			ValidUntil: payload.ValidUntil,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func DeleteQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, err := uuidParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteQuote(r.Context(), quoteID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

func AddQuoteItem(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, err := uuidParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload lineItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.AddItem(r.Context(), quoteID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, quote)
	}
}

// UpdateQuoteItemQuantity changes a line quantity; the manual price gate
// decides whether the line keeps its price or is repriced from the tiers.
func UpdateQuoteItemQuantity(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, itemID, err := quoteItemParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload itemQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.UpdateItemQuantity(r.Context(), quoteID, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func SetQuoteItemManualPrice(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, itemID, err := quoteItemParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload manualPriceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.SetManualPrice(r.Context(), quoteID, itemID, *payload.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func ClearQuoteItemManualPrice(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return quoteItemAction(logg, svc.ClearManualPrice)
}

func RemoveQuoteItem(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return quoteItemAction(logg, svc.RemoveItem)
}

func SendQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return quoteAction(logg, svc.SendQuote)
}

func AcceptQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return quoteAction(logg, svc.AcceptQuote)
}

func RejectQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return quoteAction(logg, svc.RejectQuote)
}

func ExpireQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return quoteAction(logg, svc.ExpireQuote)
}

// QuoteEmail renders the customer email for a quote.
func QuoteEmail(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, err := uuidParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		email, err := svc.QuoteEmail(r.Context(), quoteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, email)
	}
}

func quoteAction(logg *logger.Logger, fn func(context.Context, uuid.UUID) (*quotes.QuoteDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, err := uuidParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := fn(r.Context(), quoteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func quoteItemAction(logg *logger.Logger, fn func(context.Context, uuid.UUID, uuid.UUID) (*quotes.QuoteDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, itemID, err := quoteItemParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := fn(r.Context(), quoteID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func quoteItemParams(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	quoteID, err := uuidParam(r, "quoteId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	itemID, err := uuidParam(r, "itemId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return quoteID, itemID, nil
}

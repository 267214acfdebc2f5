package documents

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/salesdesk-backend/internal/orders"
	"github.com/angelmondragon/salesdesk-backend/internal/quotes"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
	"github.com/angelmondragon/salesdesk-backend/pkg/logger"
)

type quoteReader interface {
	GetQuote(ctx context.Context, quoteID uuid.UUID) (*quotes.QuoteDTO, error)
}

type orderReader interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error)
}

// Service renders customer-facing emails for quotes and orders.
type Service interface {
	QuoteEmail(ctx context.Context, quoteID uuid.UUID) (*Email, error)
	OrderEmail(ctx context.Context, orderID uuid.UUID) (*Email, error)
}

type service struct {
	quotes   quoteReader
	orders   orderReader
	renderer *Renderer
	logg     *logger.Logger
}

func NewService(quoteSvc quoteReader, orderSvc orderReader, renderer *Renderer, logg *logger.Logger) (Service, error) {
	if quoteSvc == nil {
		return nil, fmt.Errorf("quote reader required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{quotes: quoteSvc, orders: orderSvc, renderer: renderer, logg: logg}, nil
}

func (s *service) QuoteEmail(ctx context.Context, quoteID uuid.UUID) (*Email, error) {
	quote, err := s.quotes.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if len(quote.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quote has no line items")
	}
	if quote.HasWarnings {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quote has unresolved pricing warnings").
			WithDetails(map[string]any{"quote_id": quote.ID})
	}

	doc := document{
		Subject:    fmt.Sprintf("Quote %s from %s", quote.Number, s.renderer.opts.CompanyName),
		Recipient:  recipientName(quote.CustomerName),
		Number:     quote.Number,
		Status:     quote.Status.String(),
		Currency:   quote.Currency,
		ValidUntil: quote.ValidUntil,
		TaxRate:    quote.TaxRate,
		Subtotal:   quote.Subtotal,
		Tax:        quote.Tax,
		Total:      quote.Total,
		Lines:      make([]documentLine, 0, len(quote.Items)),
	}
	if quote.Notes != nil {
		doc.Notes = *quote.Notes
	}
	for _, item := range quote.Items {
		doc.Lines = append(doc.Lines, documentLine{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			Manual:      item.ManualPrice,
		})
	}

	email, err := s.renderer.render(kindQuote, doc)
	if err != nil {
		ctx = s.logg.WithField(ctx, "quote_id", quote.ID.String())
		s.logg.Error(ctx, "render quote email", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render quote email")
	}
	return email, nil
}

func (s *service) OrderEmail(ctx context.Context, orderID uuid.UUID) (*Email, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	doc := document{
		Subject:   fmt.Sprintf("Order %s confirmation from %s", order.Number, s.renderer.opts.CompanyName),
		Recipient: recipientName(order.CustomerName),
		Number:    order.Number,
		Status:    string(order.Status),
		Currency:  order.Currency,
		TaxRate:   order.TaxRate,
		Subtotal:  order.Subtotal,
		Tax:       order.Tax,
		Total:     order.Total,
		Lines:     make([]documentLine, 0, len(order.Items)),
	}
	if order.Notes != nil {
		doc.Notes = *order.Notes
	}
	for _, item := range order.Items {
		doc.Lines = append(doc.Lines, documentLine{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			Manual:      item.ManualPrice,
		})
	}

	email, err := s.renderer.render(kindOrder, doc)
	if err != nil {
		ctx = s.logg.WithField(ctx, "order_id", order.ID.String())
		s.logg.Error(ctx, "render order email", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render order email")
	}
	return email, nil
}

func recipientName(customer string) string {
	if customer == "" {
		return "customer"
	}
	return customer
}

package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/salesdesk-backend/internal/notifications"
	"github.com/angelmondragon/salesdesk-backend/internal/products"
	"github.com/angelmondragon/salesdesk-backend/pkg/db"
	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
	"github.com/angelmondragon/salesdesk-backend/pkg/logger"
	"github.com/angelmondragon/salesdesk-backend/pkg/metrics"
	"github.com/angelmondragon/salesdesk-backend/pkg/pagination"
	"github.com/angelmondragon/salesdesk-backend/pkg/pricing"
)

const maxNumberAttempts = 3

var errNumberTaken = errors.New("quote number taken")

// Service exposes quote authoring, the line pricing rules and the quote status flow.
type Service interface {
	CreateQuote(ctx context.Context, actorID uuid.UUID, input CreateQuoteInput) (*QuoteDTO, error)
	GetQuote(ctx context.Context, quoteID uuid.UUID) (*QuoteDTO, error)
	ListQuotes(ctx context.Context, input ListQuotesInput) (*QuoteListResult, error)
	UpdateQuote(ctx context.Context, quoteID uuid.UUID, input UpdateQuoteInput) (*QuoteDTO, error)
	DeleteQuote(ctx context.Context, quoteID uuid.UUID) error

	AddItem(ctx context.Context, quoteID uuid.UUID, input LineItemInput) (*QuoteDTO, error)
	UpdateItemQuantity(ctx context.Context, quoteID, itemID uuid.UUID, quantity int) (*QuoteDTO, error)
	SetManualPrice(ctx context.Context, quoteID, itemID uuid.UUID, price decimal.Decimal) (*QuoteDTO, error)
	ClearManualPrice(ctx context.Context, quoteID, itemID uuid.UUID) (*QuoteDTO, error)
	RemoveItem(ctx context.Context, quoteID, itemID uuid.UUID) (*QuoteDTO, error)

	SendQuote(ctx context.Context, quoteID uuid.UUID) (*QuoteDTO, error)
	AcceptQuote(ctx context.Context, quoteID uuid.UUID) (*QuoteDTO, error)
	RejectQuote(ctx context.Context, quoteID uuid.UUID) (*QuoteDTO, error)
	ExpireQuote(ctx context.Context, quoteID uuid.UUID) (*QuoteDTO, error)

	Preview(ctx context.Context, input PreviewInput) (*PreviewResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productReader interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*products.ProductDTO, error)
}

type decisionNotifier interface {
	QuoteDecided(ctx context.Context, tx *gorm.DB, event notifications.QuoteDecision) error
}

// Config carries the pricing and quoting settings resolved from configuration.
type Config struct {
	Policy   pricing.Policy
	Currency string
	Validity time.Duration
	Metrics  *metrics.PricingMetrics
}

type service struct {
	repo     Repository
	tx       txRunner
	products productReader
	notifier decisionNotifier
	policy   pricing.Policy
	currency string
	validity time.Duration
	metrics  *metrics.PricingMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the quote service.
func NewService(repo Repository, tx txRunner, productSvc productReader, notifier decisionNotifier, cfg Config, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quote repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if productSvc == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = enums.CurrencyUSD.String()
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: productSvc,
		notifier: notifier,
		policy:   cfg.Policy,
		currency: currency,
		validity: cfg.Validity,
		metrics:  cfg.Metrics,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateQuote(ctx context.Context, actorID uuid.UUID, input CreateQuoteInput) (*QuoteDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id is required")
	}
	if err := validateLineInputs(input.Items); err != nil {
		return nil, err
	}
	now := s.now()
	if input.ValidUntil != nil && !input.ValidUntil.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be in the future")
	}
	known, err := s.loadCatalog(ctx, productIDs(input.Items)...)
	if err != nil {
		return nil, err
	}

	quote := &models.Quote{
		CustomerID: input.CustomerID,
		CreatedBy:  actorID,
		Status:     enums.QuoteStatusDraft,
		Currency:   s.currency,
		Notes:      trimOptional(input.Notes),
		ValidUntil: input.ValidUntil,
		TaxRate:    s.policy.TaxRate,
	}
	if quote.ValidUntil == nil && s.validity > 0 {
		validUntil := now.Add(s.validity)
		quote.ValidUntil = &validUntil
	}
	for i, item := range input.Items {
		quote.Items = append(quote.Items, s.newLine(i+1, item, known[item.ProductID]))
	}
	s.recompute(quote)

	var lastErr error
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		lastErr = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			exists, err := repo.CustomerExists(ctx, input.CustomerID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check customer")
			}
			if !exists {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			number, err := repo.NextNumber(ctx)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate quote number")
			}
			quote.Number = number
			if err := repo.Create(ctx, quote); err != nil {
				if db.IsUniqueViolation(err, "") {
					return errNumberTaken
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quote")
			}
			return nil
		})
		if !errors.Is(lastErr, errNumberTaken) {
			break
		}
		resetIDs(quote)
	}
	if lastErr != nil {
		if errors.Is(lastErr, errNumberTaken) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "could not allocate a quote number")
		}
		return nil, lastErr
	}
	for _, line := range quote.Items {
		s.observeSavedLine(line)
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"quote_id":     quote.ID.String(),
		"quote_number": quote.DisplayNumber(),
		"items":        len(quote.Items),
	})
	s.logg.Info(logCtx, "quote created")
	return s.GetQuote(ctx, quote.ID)
}

func (s *service) GetQuote(ctx context.Context, quoteID uuid.UUID) (*QuoteDTO, error) {
	quote, err := s.repo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, notFoundOr(err, "load quote")
	}
	return NewQuoteDTO(quote), nil
}

func (s *service) ListQuotes(ctx context.Context, input ListQuotesInput) (*QuoteListResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, listQuery{
		Status:     input.Status,
		CustomerID: input.CustomerID,
		Limit:      input.Pagination.Limit,
		Cursor:     cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotes")
	}
	items := make([]QuoteDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *NewQuoteDTO(&rows[i]))
	}
	result := &QuoteListResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) UpdateQuote(ctx context.Context, quoteID uuid.UUID, input UpdateQuoteInput) (*QuoteDTO, error) {
	if input.ValidUntil != nil && !input.ValidUntil.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be in the future")
	}
	return s.editDraft(ctx, quoteID, func(quote *models.Quote, _ Repository) error {
		if input.Notes != nil {
			quote.Notes = trimOptional(input.Notes)
		}
		if input.ValidUntil != nil {
			quote.ValidUntil = input.ValidUntil
		}
		return nil
	})
}

func (s *service) DeleteQuote(ctx context.Context, quoteID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := repo.FindForUpdate(ctx, quoteID)
		if err != nil {
			return notFoundOr(err, "load quote")
		}
		if !quote.Status.IsEditable() {
			return notEditable(quote)
		}
		if err := repo.Delete(ctx, quoteID); err != nil {
			return notFoundOr(err, "delete quote")
		}
		return nil
	})
}

func (s *service) AddItem(ctx context.Context, quoteID uuid.UUID, input LineItemInput) (*QuoteDTO, error) {
	if err := validateLineInputs([]LineItemInput{input}); err != nil {
		return nil, err
	}
	known, err := s.loadCatalog(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	return s.editDraft(ctx, quoteID, func(quote *models.Quote, repo Repository) error {
		line := s.newLine(nextPosition(quote), input, known[input.ProductID])
		line.QuoteID = quote.ID
		if err := repo.CreateItem(ctx, &line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add line item")
		}
		s.observeSavedLine(line)
		quote.Items = append(quote.Items, line)
		return nil
	})
}

// UpdateItemQuantity changes a line quantity and runs the manual price override gate.
func (s *service) UpdateItemQuantity(ctx context.Context, quoteID, itemID uuid.UUID, quantity int) (*QuoteDTO, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than 0")
	}
	product, err := s.productForLine(ctx, quoteID, itemID)
	if err != nil {
		return nil, err
	}
	return s.editDraft(ctx, quoteID, func(quote *models.Quote, repo Repository) error {
		_, line := findLine(quote, itemID)
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
		}
		s.requantify(line, quantity, product)
		return s.saveLine(ctx, repo, line)
	})
}

// SetManualPrice pins a human-entered unit price on the line.
func (s *service) SetManualPrice(ctx context.Context, quoteID, itemID uuid.UUID, price decimal.Decimal) (*QuoteDTO, error) {
	if price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit_price must not be negative")
	}
	return s.editDraft(ctx, quoteID, func(quote *models.Quote, repo Repository) error {
		_, line := findLine(quote, itemID)
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
		}
		line.SetPriced(pricing.LineItem{Quantity: line.Quantity, Price: price, ManualPrice: true})
		line.PriceConfirmed = true
		s.flagLine(line, true)
		return s.saveLine(ctx, repo, line)
	})
}

// ClearManualPrice hands the line back to tier pricing. Lines above the manual
// price threshold cannot be switched back.
func (s *service) ClearManualPrice(ctx context.Context, quoteID, itemID uuid.UUID) (*QuoteDTO, error) {
	product, err := s.productForLine(ctx, quoteID, itemID)
	if err != nil {
		return nil, err
	}
	return s.editDraft(ctx, quoteID, func(quote *models.Quote, repo Repository) error {
		_, line := findLine(quote, itemID)
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
		}
		if s.policy.RequiresManualPrice(line.Quantity) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "quantity above the manual price threshold requires a manual price").
				WithDetails(map[string]any{"quantity": line.Quantity, "threshold": s.policy.Threshold()})
		}
		line.SetPriced(s.policy.ApplyQuantityChange(line.Priced(), line.Quantity, product.PriceTiers))
		line.PriceConfirmed = false
		s.flagLine(line, product.HasPricing())
		return s.saveLine(ctx, repo, line)
	})
}

func (s *service) RemoveItem(ctx context.Context, quoteID, itemID uuid.UUID) (*QuoteDTO, error) {
	return s.editDraft(ctx, quoteID, func(quote *models.Quote, repo Repository) error {
		idx, line := findLine(quote, itemID)
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
		}
		if err := repo.DeleteItem(ctx, quote.ID, itemID); err != nil {
			return notFoundOr(err, "remove line item")
		}
		quote.Items = append(quote.Items[:idx], quote.Items[idx+1:]...)
		return nil
	})
}

// Preview prices an unsaved list of lines with the current policy.
func (s *service) Preview(ctx context.Context, input PreviewInput) (*PreviewResult, error) {
	if err := validateLineInputs(input.Items); err != nil {
		return nil, err
	}
	known, err := s.loadCatalog(ctx, productIDs(input.Items)...)
	if err != nil {
		return nil, err
	}

	result := &PreviewResult{
		Items:    make([]PreviewLine, 0, len(input.Items)),
		Currency: s.currency,
		TaxRate:  s.policy.TaxRate,
	}
	priced := make([]pricing.LineItem, 0, len(input.Items))
	for i, item := range input.Items {
		line := s.newLine(i+1, item, known[item.ProductID])
		preview := PreviewLine{
			ProductID:   line.ProductID,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			ManualPrice: line.ManualPrice,
			LineTotal:   line.LineTotal,
		}
		if line.Warning != nil {
			warning := enums.LineWarning(*line.Warning)
			preview.Warning = &warning
		}
		result.Items = append(result.Items, preview)
		priced = append(priced, line.Priced())
	}

	totals := s.policy.ComputeTotals(priced).RoundCents()
	s.metrics.IncTotalsComputed()
	result.Subtotal = totals.Subtotal
	result.Tax = totals.Tax
	result.Total = totals.Total
	return result, nil
}

// editDraft loads the quote under lock, applies fn, recomputes and persists
// the totals snapshot, then returns the fresh quote.
func (s *service) editDraft(ctx context.Context, quoteID uuid.UUID, fn func(quote *models.Quote, repo Repository) error) (*QuoteDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := repo.FindForUpdate(ctx, quoteID)
		if err != nil {
			return notFoundOr(err, "load quote")
		}
		if !quote.Status.IsEditable() {
			return notEditable(quote)
		}
		if err := fn(quote, repo); err != nil {
			return err
		}
		s.recompute(quote)
		if err := repo.UpdateHeader(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save quote totals")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetQuote(ctx, quoteID)
}

// productForLine resolves the product of an existing line before any
// transaction opens.
func (s *service) productForLine(ctx context.Context, quoteID, itemID uuid.UUID) (*products.ProductDTO, error) {
	quote, err := s.repo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, notFoundOr(err, "load quote")
	}
	_, line := findLine(quote, itemID)
	if line == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
	}
	known, err := s.loadCatalog(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}
	return known[line.ProductID], nil
}

func (s *service) saveLine(ctx context.Context, repo Repository, line *models.QuoteLineItem) error {
	if err := repo.UpdateItem(ctx, line); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save line item")
	}
	return nil
}

func notEditable(quote *models.Quote) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft quotes can be edited").
		WithDetails(map[string]any{"status": quote.Status.String()})
}

func notFoundOr(err error, action string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
	}
	return pkgerrors.Ensure(err, pkgerrors.CodeDependency, action)
}

func resetIDs(quote *models.Quote) {
	quote.ID = uuid.Nil
	for i := range quote.Items {
		quote.Items[i].ID = uuid.Nil
		quote.Items[i].QuoteID = uuid.Nil
	}
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

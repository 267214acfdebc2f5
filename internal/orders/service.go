package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/salesdesk-backend/internal/notifications"
	"github.com/angelmondragon/salesdesk-backend/pkg/db"
	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
	"github.com/angelmondragon/salesdesk-backend/pkg/logger"
	"github.com/angelmondragon/salesdesk-backend/pkg/pagination"
)

const maxNumberAttempts = 3

var errNumberTaken = errors.New("order number taken")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type statusNotifier interface {
	OrderStatusChanged(ctx context.Context, tx *gorm.DB, event notifications.OrderStatusChange) error
}

// Service converts accepted quotes into orders and drives the order status flow.
type Service interface {
	CreateFromQuote(ctx context.Context, actorID, quoteID uuid.UUID) (*OrderDTO, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, input ListOrdersInput) (*OrderList, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier statusNotifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the orders service.
func NewService(repo Repository, tx txRunner, notifier statusNotifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		notifier: notifier,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateFromQuote snapshots an accepted quote into a pending order. A quote
// converts at most once.
func (s *service) CreateFromQuote(ctx context.Context, actorID, quoteID uuid.UUID) (*OrderDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor required")
	}

	var order *models.Order
	var lastErr error
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		lastErr = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			quote, err := repo.FindQuoteForConversion(ctx, quoteID)
			if err != nil {
				if db.IsNotFound(err) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
			}
			if quote.Status != enums.QuoteStatusAccepted {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "only accepted quotes can become orders").
					WithDetails(map[string]any{"status": quote.Status.String()})
			}
			existing, err := repo.FindByQuoteID(ctx, quoteID)
			if err == nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "quote already converted").
					WithDetails(map[string]any{"order_id": existing.ID.String(), "order_number": existing.DisplayNumber()})
			}
			if !db.IsNotFound(err) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing order")
			}

			number, err := repo.NextNumber(ctx)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
			}
			order = snapshot(quote, actorID, number)
			if err := repo.Create(ctx, order); err != nil {
				if db.IsUniqueViolation(err, "") {
					return errNumberTaken
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}
			return nil
		})
		if !errors.Is(lastErr, errNumberTaken) {
			break
		}
	}
	if lastErr != nil {
		if errors.Is(lastErr, errNumberTaken) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "could not create order")
		}
		return nil, lastErr
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.DisplayNumber(),
		"quote_id":     quoteID.String(),
	})
	s.logg.Info(logCtx, "order created from quote")
	return s.GetOrder(ctx, order.ID)
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return NewOrderDTO(order), nil
}

func (s *service) ListOrders(ctx context.Context, input ListOrdersInput) (*OrderList, error) {
	if input.Filters.Status != nil && !input.Filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, input.Filters, input.Pagination.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	items := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *NewOrderDTO(&rows[i]))
	}
	list := &OrderList{Items: items}
	if next != nil {
		list.Cursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

// UpdateStatus moves the order along pending → confirmed → fulfilled or
// cancels it, and notifies the order owner in the same transaction.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUpdate(ctx, orderID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !order.Status.CanTransitionTo(target) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order cannot move from %s to %s", order.Status, target).
				WithDetails(map[string]any{"from": order.Status.String(), "to": target.String()})
		}

		now := s.now()
		switch target {
		case enums.OrderStatusConfirmed:
			order.ConfirmedAt = &now
		case enums.OrderStatusFulfilled:
			order.FulfilledAt = &now
		case enums.OrderStatusCanceled:
			order.CanceledAt = &now
		}
		order.Status = target
		if err := repo.UpdateStatus(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return s.notifier.OrderStatusChanged(ctx, tx, notifications.OrderStatusChange{
			OrderID:     order.ID,
			Number:      order.DisplayNumber(),
			RecipientID: order.CreatedBy,
			Status:      target,
		})
	})
	if err != nil {
		return nil, pkgerrors.Ensure(err, pkgerrors.CodeDependency, "notify order owner")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": orderID.String(),
		"status":   target.String(),
	})
	s.logg.Info(logCtx, "order status changed")
	return s.GetOrder(ctx, orderID)
}

func snapshot(quote *models.Quote, actorID uuid.UUID, number int64) *models.Order {
	order := &models.Order{
		Number:     number,
		QuoteID:    quote.ID,
		CustomerID: quote.CustomerID,
		CreatedBy:  actorID,
		Status:     enums.OrderStatusPending,
		Currency:   quote.Currency,
		Notes:      quote.Notes,
		TaxRate:    quote.TaxRate,
		Subtotal:   quote.Subtotal,
		Tax:        quote.Tax,
		Total:      quote.Total,
		Items:      make([]models.OrderLineItem, 0, len(quote.Items)),
	}
	for _, line := range quote.Items {
		order.Items = append(order.Items, models.OrderLineItem{
			ProductID:   line.ProductID,
			Position:    line.Position,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			ManualPrice: line.ManualPrice,
			LineTotal:   line.LineTotal,
		})
	}
	return order
}

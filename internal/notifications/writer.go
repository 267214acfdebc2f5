package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	"github.com/angelmondragon/salesdesk-backend/pkg/logger"
)

// QuoteDecision describes a customer's answer to a sent quote.
type QuoteDecision struct {
	QuoteID      uuid.UUID
	Number       string
	CustomerName string
	RecipientID  uuid.UUID
	Status       enums.QuoteStatus
}

// OrderStatusChange describes an order moving to a new status.
type OrderStatusChange struct {
	OrderID     uuid.UUID
	Number      string
	RecipientID uuid.UUID
	Status      enums.OrderStatus
}

// Writer turns domain state changes into notification rows. Callers pass the
// transaction that carries the state change so both commit together.
type Writer struct {
	repo Repository
	logg *logger.Logger
}

// NewWriter builds a notification writer.
func NewWriter(repo Repository, logg *logger.Logger) (*Writer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Writer{repo: repo, logg: logg}, nil
}

// QuoteDecided notifies the quote owner that the customer accepted or rejected it.
func (w *Writer) QuoteDecided(ctx context.Context, tx *gorm.DB, event QuoteDecision) error {
	if event.RecipientID == uuid.Nil {
		return fmt.Errorf("recipient id missing")
	}

	notification := &models.Notification{
		UserID: event.RecipientID,
		Link:   stringPtr(fmt.Sprintf("/quotes/%s", event.QuoteID)),
	}
	switch event.Status {
	case enums.QuoteStatusAccepted:
		notification.Type = enums.NotificationTypeQuoteAccepted
		notification.Title = fmt.Sprintf("Quote %s accepted", event.Number)
		notification.Message = fmt.Sprintf("%s accepted quote %s. It can now be converted into an order.", event.CustomerName, event.Number)
	case enums.QuoteStatusRejected:
		notification.Type = enums.NotificationTypeQuoteRejected
		notification.Title = fmt.Sprintf("Quote %s rejected", event.Number)
		notification.Message = fmt.Sprintf("%s rejected quote %s.", event.CustomerName, event.Number)
	default:
		return nil
	}

	if err := w.repo.WithTx(tx).Create(ctx, notification); err != nil {
		return err
	}
	logCtx := w.logg.WithFields(ctx, map[string]any{
		"quote_id": event.QuoteID.String(),
		"status":   string(event.Status),
	})
	w.logg.Info(logCtx, "quote owner notified")
	return nil
}

// OrderStatusChanged notifies the order owner of a status transition.
func (w *Writer) OrderStatusChanged(ctx context.Context, tx *gorm.DB, event OrderStatusChange) error {
	if event.RecipientID == uuid.Nil {
		return fmt.Errorf("recipient id missing")
	}

	notification := &models.Notification{
		UserID:  event.RecipientID,
		Type:    enums.NotificationTypeOrderStatus,
		Title:   fmt.Sprintf("Order %s %s", event.Number, event.Status),
		Message: fmt.Sprintf("Order %s is now %s.", event.Number, event.Status),
		Link:    stringPtr(fmt.Sprintf("/orders/%s", event.OrderID)),
	}
	if err := w.repo.WithTx(tx).Create(ctx, notification); err != nil {
		return err
	}
	logCtx := w.logg.WithFields(ctx, map[string]any{
		"order_id": event.OrderID.String(),
		"status":   string(event.Status),
	})
	w.logg.Info(logCtx, "order owner notified")
	return nil
}

func stringPtr(value string) *string {
	return &value
}

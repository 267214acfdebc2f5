package quotes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/salesdesk-backend/internal/notifications"
	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
)

// SendQuote freezes a draft for the customer. Quotes without lines or with
// unresolved line warnings cannot be sent.
func (s *service) SendQuote(ctx context.Context, quoteID uuid.UUID) (*QuoteDTO, error) {
	return s.transition(ctx, quoteID, enums.QuoteStatusSent)
}

func (s *service) AcceptQuote(ctx context.Context, quoteID uuid.UUID) (*QuoteDTO, error) {
	return s.transition(ctx, quoteID, enums.QuoteStatusAccepted)
}

func (s *service) RejectQuote(ctx context.Context, quoteID uuid.UUID) (*QuoteDTO, error) {
	return s.transition(ctx, quoteID, enums.QuoteStatusRejected)
}

// ExpireQuote is a manual action; nothing expires quotes on a timer.
func (s *service) ExpireQuote(ctx context.Context, quoteID uuid.UUID) (*QuoteDTO, error) {
	return s.transition(ctx, quoteID, enums.QuoteStatusExpired)
}

func (s *service) transition(ctx context.Context, quoteID uuid.UUID, target enums.QuoteStatus) (*QuoteDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := repo.FindForUpdate(ctx, quoteID)
		if err != nil {
			return notFoundOr(err, "load quote")
		}
		if !quote.Status.CanTransitionTo(target) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "quote cannot move from %s to %s", quote.Status, target).
				WithDetails(map[string]any{"from": quote.Status.String(), "to": target.String()})
		}
		if err := s.checkTransition(quote, target); err != nil {
			return err
		}

		now := s.now()
		switch target {
		case enums.QuoteStatusSent:
			quote.SentAt = &now
			if quote.ValidUntil == nil && s.validity > 0 {
				validUntil := now.Add(s.validity)
				quote.ValidUntil = &validUntil
			}
		case enums.QuoteStatusAccepted, enums.QuoteStatusRejected, enums.QuoteStatusExpired:
			quote.DecidedAt = &now
		}
		quote.Status = target

		if err := repo.UpdateHeader(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quote status")
		}
		if target == enums.QuoteStatusAccepted || target == enums.QuoteStatusRejected {
			if err := s.notifier.QuoteDecided(ctx, tx, decisionFor(quote)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify quote owner")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"quote_id": quoteID.String(),
		"status":   target.String(),
	})
	s.logg.Info(logCtx, "quote status changed")
	return s.GetQuote(ctx, quoteID)
}

func (s *service) checkTransition(quote *models.Quote, target enums.QuoteStatus) error {
	switch target {
	case enums.QuoteStatusSent, enums.QuoteStatusAccepted:
		if len(quote.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "quote has no line items")
		}
		if warnings := lineWarnings(quote); len(warnings) > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "quote has unresolved line warnings").
				WithDetails(map[string]any{"warnings": warnings})
		}
	}
	if target == enums.QuoteStatusAccepted && quote.ValidUntil != nil && s.now().After(*quote.ValidUntil) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "quote validity has lapsed").
			WithDetails(map[string]any{"valid_until": quote.ValidUntil})
	}
	return nil
}

func decisionFor(quote *models.Quote) notifications.QuoteDecision {
	event := notifications.QuoteDecision{
		QuoteID:      quote.ID,
		Number:       quote.DisplayNumber(),
		CustomerName: "The customer",
		RecipientID:  quote.CreatedBy,
		Status:       quote.Status,
	}
	if quote.Customer != nil && quote.Customer.CompanyName != "" {
		event.CustomerName = quote.Customer.CompanyName
	}
	return event
}

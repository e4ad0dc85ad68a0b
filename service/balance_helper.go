package service

import (
	"context"
	"fmt"

	"socialstakes/events"
	"socialstakes/models"
)

// RecordBalanceChange records a balance history entry and emits the matching
// events. Every balance mutation goes through here so the audit trail and
// the event stream stay complete.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          history.UserID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
		BetID:           history.RelatedID,
	})

	if history.TransactionType == models.TransactionTypeInitial {
		if username, ok := history.TransactionMetadata["username"].(string); ok {
			uow.EventBus().Publish(events.UserCreatedEvent{
				UserID:         history.UserID,
				Username:       username,
				InitialBalance: history.BalanceAfter,
			})
		}
	}

	return nil
}

func relatedTypePtr(rt models.RelatedType) *models.RelatedType {
	return &rt
}

func betHistory(userID, betID int64, balanceAfter, change int64, txType models.TransactionType, metadata map[string]any) *models.BalanceHistory {
	return &models.BalanceHistory{
		UserID:              userID,
		BalanceBefore:       balanceAfter - change,
		BalanceAfter:        balanceAfter,
		ChangeAmount:        change,
		TransactionType:     txType,
		TransactionMetadata: metadata,
		RelatedID:           &betID,
		RelatedType:         relatedTypePtr(models.RelatedTypeBet),
	}
}

package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial   TransactionType = "initial"
	TransactionTypeBetStake  TransactionType = "bet_stake"
	TransactionTypeBetPayout TransactionType = "bet_payout"
	TransactionTypeBetRefund TransactionType = "bet_refund"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeBet RelatedType = "bet"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id" json:"id"`
	UserID              int64           `db:"user_id" json:"userId"`
	BalanceBefore       int64           `db:"balance_before" json:"balanceBefore"`
	BalanceAfter        int64           `db:"balance_after" json:"balanceAfter"`
	ChangeAmount        int64           `db:"change_amount" json:"changeAmount"`
	TransactionType     TransactionType `db:"transaction_type" json:"transactionType"`
	TransactionMetadata map[string]any  `db:"transaction_metadata" json:"metadata,omitempty"`
	RelatedID           *int64          `db:"related_id" json:"relatedId,omitempty"`
	RelatedType         *RelatedType    `db:"related_type" json:"relatedType,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"createdAt"`
}

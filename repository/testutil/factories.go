package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"socialstakes/database"
	"socialstakes/models"

	"github.com/stretchr/testify/require"
)

var usernameSeq atomic.Int64

// UniqueUsername returns a valid username that is unique within the test binary
func UniqueUsername(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, usernameSeq.Add(1))
}

// CreateTestUser builds an in-memory user with default values
func CreateTestUser(id int64, username string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Username:  username,
		Balance:   100000,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestUserWithBalance builds an in-memory user with a specific balance
func CreateTestUserWithBalance(id int64, username string, balance int64) *models.User {
	user := CreateTestUser(id, username)
	user.Balance = balance
	return user
}

// CreateTestBalanceHistory builds a balance history entry for userID
func CreateTestBalanceHistory(userID int64, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   100000,
		BalanceAfter:    90000,
		ChangeAmount:    -10000,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
		CreatedAt: time.Now(),
	}
}

// CreateTestBet builds an open public bet owned by creatorID
func CreateTestBet(creatorID int64, title string) *models.Bet {
	return &models.Bet{
		CreatorID:  creatorID,
		Title:      title,
		Category:   models.BetCategoryCustom,
		Visibility: models.BetVisibilityPublic,
		Status:     models.BetStatusOpen,
	}
}

// CreateTestOptions builds options with even odds for the given texts
func CreateTestOptions(texts ...string) []*models.BetOption {
	options := make([]*models.BetOption, len(texts))
	for i, text := range texts {
		options[i] = &models.BetOption{
			OptionIndex: i,
			Text:        text,
			Odds:        1,
		}
	}
	return options
}

// CreateTestBetDetail builds an in-memory bet detail with accepted
// participants. stakes maps participant user ID to option index and amount
// in join order.
func CreateTestBetDetail(betID, creatorID int64, options []string, stakes ...TestStake) *models.BetDetail {
	bet := CreateTestBet(creatorID, "test bet")
	bet.ID = betID

	detail := &models.BetDetail{
		Bet:     bet,
		Options: CreateTestOptions(options...),
	}
	for _, opt := range detail.Options {
		opt.BetID = betID
	}

	joined := time.Now().Add(-time.Hour)
	for i, stake := range stakes {
		detail.Participants = append(detail.Participants, &models.BetParticipant{
			ID:          int64(i + 1),
			BetID:       betID,
			UserID:      stake.UserID,
			OptionIndex: stake.OptionIndex,
			Amount:      stake.Amount,
			Status:      models.ParticipantStatusAccepted,
			JoinedAt:    joined.Add(time.Duration(i) * time.Second),
		})
		bet.TotalPool += stake.Amount
	}
	return detail
}

// AddTestInvitation appends an unstaked invitation row for userID
func AddTestInvitation(detail *models.BetDetail, userID int64, status models.ParticipantStatus) *models.BetParticipant {
	creatorID := detail.Bet.CreatorID
	invite := &models.BetParticipant{
		ID:        int64(len(detail.Participants) + 1),
		BetID:     detail.Bet.ID,
		UserID:    userID,
		Status:    status,
		InvitedBy: &creatorID,
		JoinedAt:  time.Now().Add(-2 * time.Hour),
	}
	detail.Participants = append(detail.Participants, invite)
	return invite
}

// TestStake describes one participant for CreateTestBetDetail
type TestStake struct {
	UserID      int64
	OptionIndex int
	Amount      int64
}

// InsertUser creates a user row with balance and returns its ID
func InsertUser(t *testing.T, db *database.DB, username string, balance int64) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(context.Background(),
		`INSERT INTO users (username, password_hash, balance) VALUES ($1, 'x', $2) RETURNING id`,
		username, balance,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// GetBalance reads a user's balance directly
func GetBalance(t *testing.T, db *database.DB, userID int64) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(context.Background(), `SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance)
	require.NoError(t, err)
	return balance
}

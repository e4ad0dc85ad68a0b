package service

import (
	"context"
	"time"

	"socialstakes/events"
	"socialstakes/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID, returning nil when absent
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByUsername retrieves a user by case-insensitive username
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Create creates a new user with the initial balance
	Create(ctx context.Context, username, passwordHash string, initialBalance int64) (*models.User, error)

	// AddBalance credits a user and returns the new balance
	AddBalance(ctx context.Context, id int64, amount int64) (int64, error)

	// DeductBalance debits a user only if balance >= amount and returns the
	// new balance. Fails with models.ErrInsufficientBalance otherwise.
	DeductBalance(ctx context.Context, id int64, amount int64) (int64, error)

	// ApplyStats adds a settlement stat delta and recomputes the win rate
	ApplyStats(ctx context.Context, delta models.StatDelta) error

	// GetLeaderboard returns users ordered by win rate then wins
	GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)

	// GetRank returns 1 + the number of users ranked strictly ahead of id
	GetRank(ctx context.Context, id int64) (int, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns the most recent balance history for a user
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)

	// GetByDateRange returns balance history within [from, to)
	GetByDateRange(ctx context.Context, userID int64, from, to time.Time) ([]*models.BalanceHistory, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// CreateWithOptions inserts a bet and its options
	CreateWithOptions(ctx context.Context, bet *models.Bet, options []*models.BetOption) error

	// GetByID retrieves a bet by ID
	GetByID(ctx context.Context, id int64) (*models.Bet, error)

	// GetByIDForUpdate retrieves a bet and locks its row until the
	// transaction ends. All mutations of a bet go through this lock.
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Bet, error)

	// GetDetailByID returns the bet with options and participants
	GetDetailByID(ctx context.Context, id int64) (*models.BetDetail, error)

	// Update persists status, pool, outcome and resolution time
	Update(ctx context.Context, bet *models.Bet) error

	// SaveParticipant inserts a participant. A second stake by the same
	// user fails with models.ErrAlreadyJoined.
	SaveParticipant(ctx context.Context, participant *models.BetParticipant) error

	// UpdateParticipantStake persists an invitation response: status,
	// option, amount and history link. Accepting restamps joined_at.
	UpdateParticipantStake(ctx context.Context, participant *models.BetParticipant) error

	// GetParticipant returns a user's participation or nil
	GetParticipant(ctx context.Context, betID, userID int64) (*models.BetParticipant, error)

	// UpdateParticipantPayouts persists status, payout and history links
	UpdateParticipantPayouts(ctx context.Context, participants []*models.BetParticipant) error

	// ListPublicOpen returns open public bets, newest first
	ListPublicOpen(ctx context.Context, limit, offset int) ([]*models.Bet, error)

	// ListByUser returns bets the user created or joined, newest first
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Bet, error)

	// ListPendingInvites returns joinable bets with an unanswered invitation
	// for the user
	ListPendingInvites(ctx context.Context, userID int64, limit int) ([]*models.Bet, error)

	// GetCategoryStats aggregates a user's participations per category
	GetCategoryStats(ctx context.Context, userID int64) ([]*models.CategoryStats, error)
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork scopes repositories and events to one database transaction
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	BetRepository() BetRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// LeaderboardCache stores computed leaderboards. Implementations may be
// remote, so every method can fail.
type LeaderboardCache interface {
	// Get returns the cached leaderboard and whether it was present
	Get(ctx context.Context, limit int) ([]*models.LeaderboardEntry, bool, error)

	// Set stores a leaderboard
	Set(ctx context.Context, limit int, entries []*models.LeaderboardEntry) error

	// Invalidate drops every cached leaderboard
	Invalidate(ctx context.Context) error
}

// CreateBetParams holds the fields needed to open a bet
type CreateBetParams struct {
	CreatorID   int64
	Title       string
	Description string
	Category    models.BetCategory
	Visibility  models.BetVisibility
	Options     []OptionParams
	ExpiresAt   *time.Time
}

// OptionParams describes one option of a new bet. Zero odds default to 1.
type OptionParams struct {
	Text string
	Odds float64
}

// UserService defines the interface for user operations
type UserService interface {
	// Register creates a user with the starting balance
	Register(ctx context.Context, username, password string) (*models.User, error)

	// Authenticate checks a username and password pair
	Authenticate(ctx context.Context, username, password string) (*models.User, error)

	// GetUser returns a user by ID
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	// GetBalanceHistory returns recent balance changes for a user
	GetBalanceHistory(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)

	// GetCategoryStats returns per-category participation stats
	GetCategoryStats(ctx context.Context, userID int64) ([]*models.CategoryStats, error)
}

// BetService defines the interface for the bet lifecycle
type BetService interface {
	// CreateBet opens a new bet with an empty pool
	CreateBet(ctx context.Context, params CreateBetParams) (*models.BetDetail, error)

	// JoinBet stakes amount on the option matching choice
	JoinBet(ctx context.Context, betID, userID int64, choice string, amount int64) (*models.BetParticipant, error)

	// InviteParticipants adds pending invitations, optionally suggesting an
	// option. Only the creator may invite.
	InviteParticipants(ctx context.Context, betID, creatorID int64, userIDs []int64, option string) ([]*models.BetParticipant, error)

	// RespondToInvite accepts (staking amount on choice) or declines a
	// pending invitation
	RespondToInvite(ctx context.Context, betID, userID int64, accept bool, choice string, amount int64) (*models.BetParticipant, error)

	// ListInvites returns bets with a pending invitation for the user
	ListInvites(ctx context.Context, userID int64, limit int) ([]*models.Bet, error)

	// ActivateBet closes joining on an open bet
	ActivateBet(ctx context.Context, betID, callerID int64) (*models.Bet, error)

	// ResolveBet settles the bet with the option matching outcome
	ResolveBet(ctx context.Context, betID, callerID int64, outcome string) (*models.BetResult, error)

	// CancelBet refunds every stake and closes the bet
	CancelBet(ctx context.Context, betID, callerID int64) (*models.BetResult, error)

	// GetBet returns a bet with options and participants
	GetBet(ctx context.Context, betID int64) (*models.BetDetail, error)

	// ListPublicBets returns open public bets
	ListPublicBets(ctx context.Context, limit, offset int) ([]*models.Bet, error)

	// ListUserBets returns bets a user created or joined
	ListUserBets(ctx context.Context, userID int64, limit int) ([]*models.Bet, error)
}

// LeaderboardService defines the interface for leaderboard reads
type LeaderboardService interface {
	// GetGlobal returns the ranked leaderboard
	GetGlobal(ctx context.Context) ([]*models.LeaderboardEntry, error)

	// GetRanking returns a single user's leaderboard entry
	GetRanking(ctx context.Context, userID int64) (*models.LeaderboardEntry, error)
}

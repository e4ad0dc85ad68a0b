package repository

import (
	"context"
	"errors"
	"fmt"

	"socialstakes/database"
	"socialstakes/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, password_hash, balance, total_bets, wins, losses, win_rate, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Balance,
		&user.Stats.TotalBets,
		&user.Stats.Wins,
		&user.Stats.Losses,
		&user.Stats.WinRate,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetByUsername retrieves a user by case-insensitive username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1)`

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return user, nil
}

// Create creates a new user with the initial balance
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string, initialBalance int64) (*models.User, error) {
	query := `
		INSERT INTO users (username, password_hash, balance)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, username, passwordHash, initialBalance))
	if isUniqueViolation(err, "idx_users_username_lower") {
		return nil, fmt.Errorf("%q: %w", username, models.ErrUsernameTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user %q: %w", username, err)
	}
	return user, nil
}

// AddBalance adds to a user's balance atomically and returns the new balance
func (r *UserRepository) AddBalance(ctx context.Context, id int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, id).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add balance for user %d: %w", id, err)
	}
	return balance, nil
}

// DeductBalance deducts from a user's balance only when it covers amount
func (r *UserRepository) DeductBalance(ctx context.Context, id int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, id).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		user, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return 0, fmt.Errorf("failed to check user: %w", getErr)
		}
		if user == nil {
			return 0, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
		}
		return 0, fmt.Errorf("have %d, need %d: %w", user.Balance, amount, models.ErrInsufficientBalance)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to deduct balance for user %d: %w", id, err)
	}
	return balance, nil
}

// ApplyStats adds a stat delta and recomputes win_rate from the new totals.
// Column references on the right-hand side see the pre-update row.
func (r *UserRepository) ApplyStats(ctx context.Context, delta models.StatDelta) error {
	query := `
		UPDATE users
		SET total_bets = total_bets + $2,
		    wins       = wins + $3,
		    losses     = losses + $4,
		    win_rate   = CASE
		                     WHEN wins + $3 + losses + $4 = 0 THEN 0
		                     ELSE (wins + $3)::float8 / (wins + $3 + losses + $4)
		                 END,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, delta.UserID, delta.TotalBets, delta.Wins, delta.Losses)
	if err != nil {
		return fmt.Errorf("failed to apply stats for user %d: %w", delta.UserID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", delta.UserID, models.ErrNotFound)
	}
	return nil
}

// GetLeaderboard returns users ordered by win rate, then wins
func (r *UserRepository) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT id, username, balance, total_bets, wins, losses, win_rate
		FROM users
		ORDER BY win_rate DESC, wins DESC, id ASC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*models.LeaderboardEntry
	for rows.Next() {
		var entry models.LeaderboardEntry
		if err := rows.Scan(
			&entry.UserID,
			&entry.Username,
			&entry.Balance,
			&entry.TotalBets,
			&entry.Wins,
			&entry.Losses,
			&entry.WinRate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entry.Rank = len(entries) + 1
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard: %w", err)
	}

	return entries, nil
}

// GetRank returns the user's leaderboard position using the same ordering
// as GetLeaderboard.
func (r *UserRepository) GetRank(ctx context.Context, id int64) (int, error) {
	query := `
		SELECT COUNT(*) + 1
		FROM users o, users u
		WHERE u.id = $1
		  AND (o.win_rate > u.win_rate
		       OR (o.win_rate = u.win_rate AND o.wins > u.wins)
		       OR (o.win_rate = u.win_rate AND o.wins = u.wins AND o.id < u.id))
	`

	var rank int
	if err := r.q.QueryRow(ctx, query, id).Scan(&rank); err != nil {
		return 0, fmt.Errorf("failed to get rank for user %d: %w", id, err)
	}
	return rank, nil
}

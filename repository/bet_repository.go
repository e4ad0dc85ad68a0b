package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"socialstakes/database"
	"socialstakes/models"

	"github.com/jackc/pgx/v5"
)

const betColumns = `id, creator_id, title, description, category, visibility, status,
	total_pool, outcome_index, expires_at, created_at, updated_at, resolved_at`

const participantColumns = `id, bet_id, user_id, option_index, amount, status, payout_amount,
	balance_history_id, invited_by, invited_option, joined_at`

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

func scanBet(row pgx.Row) (*models.Bet, error) {
	var bet models.Bet
	err := row.Scan(
		&bet.ID,
		&bet.CreatorID,
		&bet.Title,
		&bet.Description,
		&bet.Category,
		&bet.Visibility,
		&bet.Status,
		&bet.TotalPool,
		&bet.OutcomeIndex,
		&bet.ExpiresAt,
		&bet.CreatedAt,
		&bet.UpdatedAt,
		&bet.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

// scanParticipant reads a participant row. Invitations have no option yet,
// so a NULL option_index leaves OptionIndex at zero.
func scanParticipant(row pgx.Row) (*models.BetParticipant, error) {
	var p models.BetParticipant
	var optionIndex *int
	err := row.Scan(
		&p.ID,
		&p.BetID,
		&p.UserID,
		&optionIndex,
		&p.Amount,
		&p.Status,
		&p.PayoutAmount,
		&p.BalanceHistoryID,
		&p.InvitedBy,
		&p.InvitedOption,
		&p.JoinedAt,
	)
	if err != nil {
		return nil, err
	}
	if optionIndex != nil {
		p.OptionIndex = *optionIndex
	}
	return &p, nil
}

// stakeOption returns the option_index column value for p
func stakeOption(p *models.BetParticipant) *int {
	if p.IsInvitation() {
		return nil
	}
	index := p.OptionIndex
	return &index
}

func collectBets(rows pgx.Rows) ([]*models.Bet, error) {
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}
	return bets, nil
}

// CreateWithOptions inserts the bet and all of its options
func (r *BetRepository) CreateWithOptions(ctx context.Context, bet *models.Bet, options []*models.BetOption) error {
	query := `
		INSERT INTO bets (creator_id, title, description, category, visibility, status, total_pool, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.CreatorID,
		bet.Title,
		bet.Description,
		bet.Category,
		bet.Visibility,
		bet.Status,
		bet.TotalPool,
		bet.ExpiresAt,
	).Scan(&bet.ID, &bet.CreatedAt, &bet.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}

	if len(options) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO bet_options (bet_id, option_index, option_text, odds) VALUES`)
	args := make([]any, 0, len(options)*4)
	byIndex := make(map[int]*models.BetOption, len(options))
	for i, option := range options {
		if i > 0 {
			sb.WriteString(",")
		}
		p := i * 4
		fmt.Fprintf(&sb, " ($%d, $%d, $%d, $%d)", p+1, p+2, p+3, p+4)
		args = append(args, bet.ID, option.OptionIndex, option.Text, option.Odds)
		byIndex[option.OptionIndex] = option
	}
	sb.WriteString(" RETURNING id, option_index")

	rows, err := r.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("failed to create bet options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var index int
		if err := rows.Scan(&id, &index); err != nil {
			return fmt.Errorf("failed to scan option ID: %w", err)
		}
		option, ok := byIndex[index]
		if !ok {
			return fmt.Errorf("unexpected option index %d returned", index)
		}
		option.ID = id
		option.BetID = bet.ID
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to create bet options: %w", err)
	}

	return nil
}

// GetByID retrieves a bet by its ID
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE id = $1`

	bet, err := scanBet(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", id, err)
	}
	return bet, nil
}

// GetByIDForUpdate retrieves a bet and holds a row lock until the
// surrounding transaction ends.
func (r *BetRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE id = $1 FOR UPDATE`

	bet, err := scanBet(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock bet %d: %w", id, err)
	}
	return bet, nil
}

// GetDetailByID returns the bet with options and participants
func (r *BetRepository) GetDetailByID(ctx context.Context, id int64) (*models.BetDetail, error) {
	bet, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bet == nil {
		return nil, nil
	}

	options, err := r.getOptionsByBet(ctx, id)
	if err != nil {
		return nil, err
	}

	participants, err := r.getParticipantsByBet(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.BetDetail{
		Bet:          bet,
		Options:      options,
		Participants: participants,
	}, nil
}

// Update persists the mutable fields of a bet
func (r *BetRepository) Update(ctx context.Context, bet *models.Bet) error {
	query := `
		UPDATE bets
		SET status = $2, total_pool = $3, outcome_index = $4, resolved_at = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.ID,
		bet.Status,
		bet.TotalPool,
		bet.OutcomeIndex,
		bet.ResolvedAt,
	).Scan(&bet.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("bet %d: %w", bet.ID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update bet %d: %w", bet.ID, err)
	}
	return nil
}

// SaveParticipant inserts a participant record. Invitations are stored
// without an option or amount.
func (r *BetRepository) SaveParticipant(ctx context.Context, participant *models.BetParticipant) error {
	if participant.IsInvitation() {
		participant.Amount = 0
	}

	query := `
		INSERT INTO bet_participants
		(bet_id, user_id, option_index, amount, status, balance_history_id, invited_by, invited_option)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, joined_at
	`

	err := r.q.QueryRow(ctx, query,
		participant.BetID,
		participant.UserID,
		stakeOption(participant),
		participant.Amount,
		participant.Status,
		participant.BalanceHistoryID,
		participant.InvitedBy,
		participant.InvitedOption,
	).Scan(&participant.ID, &participant.JoinedAt)
	if isUniqueViolation(err, "bet_participants_unique_user") {
		return fmt.Errorf("user %d on bet %d: %w", participant.UserID, participant.BetID, models.ErrAlreadyJoined)
	}
	if err != nil {
		return fmt.Errorf("failed to save participant: %w", err)
	}
	return nil
}

// UpdateParticipantStake writes the outcome of an invitation response. An
// accepted row takes a fresh joined_at so join order follows acceptance.
func (r *BetRepository) UpdateParticipantStake(ctx context.Context, participant *models.BetParticipant) error {
	if participant.IsInvitation() {
		participant.Amount = 0
	}

	query := `
		UPDATE bet_participants
		SET status = $2,
		    option_index = $3,
		    amount = $4,
		    balance_history_id = $5,
		    joined_at = CASE WHEN $6 THEN clock_timestamp() ELSE joined_at END
		WHERE id = $1
		RETURNING joined_at
	`

	err := r.q.QueryRow(ctx, query,
		participant.ID,
		participant.Status,
		stakeOption(participant),
		participant.Amount,
		participant.BalanceHistoryID,
		participant.Status == models.ParticipantStatusAccepted,
	).Scan(&participant.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("participant %d: %w", participant.ID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update stake for participant %d: %w", participant.ID, err)
	}
	return nil
}

// GetParticipant returns a user's participation in a bet
func (r *BetRepository) GetParticipant(ctx context.Context, betID, userID int64) (*models.BetParticipant, error) {
	query := `SELECT ` + participantColumns + ` FROM bet_participants WHERE bet_id = $1 AND user_id = $2`

	p, err := scanParticipant(r.q.QueryRow(ctx, query, betID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// UpdateParticipantPayouts persists settlement results on each participant
func (r *BetRepository) UpdateParticipantPayouts(ctx context.Context, participants []*models.BetParticipant) error {
	if len(participants) == 0 {
		return nil
	}

	query := `
		UPDATE bet_participants
		SET status = $2, payout_amount = $3, balance_history_id = $4
		WHERE id = $1
	`

	for _, participant := range participants {
		_, err := r.q.Exec(ctx, query,
			participant.ID,
			participant.Status,
			participant.PayoutAmount,
			participant.BalanceHistoryID,
		)
		if err != nil {
			return fmt.Errorf("failed to update payout for participant %d: %w", participant.ID, err)
		}
	}

	return nil
}

// ListPublicOpen returns open public bets, newest first
func (r *BetRepository) ListPublicOpen(ctx context.Context, limit, offset int) ([]*models.Bet, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE status = 'open' AND visibility = 'public'
		  AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list public bets: %w", err)
	}
	return collectBets(rows)
}

// ListByUser returns bets the user created or joined, newest first
func (r *BetRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Bet, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets b
		WHERE b.creator_id = $1
		   OR EXISTS (SELECT 1 FROM bet_participants p WHERE p.bet_id = b.id AND p.user_id = $1)
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets for user %d: %w", userID, err)
	}
	return collectBets(rows)
}

// ListPendingInvites returns joinable bets the user was invited to and has
// not answered, newest first
func (r *BetRepository) ListPendingInvites(ctx context.Context, userID int64, limit int) ([]*models.Bet, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets b
		WHERE b.status = 'open'
		  AND (b.expires_at IS NULL OR b.expires_at > NOW())
		  AND EXISTS (
		      SELECT 1 FROM bet_participants p
		      WHERE p.bet_id = b.id AND p.user_id = $1 AND p.status = 'pending'
		  )
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites for user %d: %w", userID, err)
	}
	return collectBets(rows)
}

// GetCategoryStats aggregates a user's stakes by bet category. Refunded
// stakes count toward totals but neither wins nor losses; invitations
// count toward nothing.
func (r *BetRepository) GetCategoryStats(ctx context.Context, userID int64) ([]*models.CategoryStats, error) {
	query := `
		SELECT b.category,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE b.status = 'resolved' AND p.status = 'accepted' AND p.option_index = b.outcome_index),
		       COUNT(*) FILTER (WHERE b.status = 'resolved' AND p.status = 'accepted' AND p.option_index <> b.outcome_index),
		       COALESCE(SUM(p.amount), 0)::bigint,
		       COALESCE(SUM(p.payout_amount) FILTER (WHERE p.status = 'accepted'), 0)::bigint
		FROM bet_participants p
		JOIN bets b ON b.id = p.bet_id
		WHERE p.user_id = $1 AND p.status IN ('accepted', 'refunded')
		GROUP BY b.category
		ORDER BY b.category
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category stats for user %d: %w", userID, err)
	}
	defer rows.Close()

	var stats []*models.CategoryStats
	for rows.Next() {
		var s models.CategoryStats
		if err := rows.Scan(&s.Category, &s.Total, &s.Won, &s.Lost, &s.Staked, &s.Payouts); err != nil {
			return nil, fmt.Errorf("failed to scan category stats: %w", err)
		}
		stats = append(stats, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category stats: %w", err)
	}
	return stats, nil
}

func (r *BetRepository) getOptionsByBet(ctx context.Context, betID int64) ([]*models.BetOption, error) {
	query := `
		SELECT id, bet_id, option_index, option_text, odds
		FROM bet_options
		WHERE bet_id = $1
		ORDER BY option_index
	`

	rows, err := r.q.Query(ctx, query, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get options for bet %d: %w", betID, err)
	}
	defer rows.Close()

	var options []*models.BetOption
	for rows.Next() {
		var o models.BetOption
		if err := rows.Scan(&o.ID, &o.BetID, &o.OptionIndex, &o.Text, &o.Odds); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate options: %w", err)
	}
	return options, nil
}

func (r *BetRepository) getParticipantsByBet(ctx context.Context, betID int64) ([]*models.BetParticipant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM bet_participants
		WHERE bet_id = $1
		ORDER BY joined_at, id
	`

	rows, err := r.q.Query(ctx, query, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants for bet %d: %w", betID, err)
	}
	defer rows.Close()

	participants := []*models.BetParticipant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

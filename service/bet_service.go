package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"socialstakes/config"
	"socialstakes/events"
	"socialstakes/models"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxTitleLength   = 200

	maxInvitesPerRequest = 50
)

type betService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
	now        func() time.Time
}

// NewBetService creates a new bet service
func NewBetService(uowFactory UnitOfWorkFactory, cfg *config.Config) BetService {
	return &betService{
		uowFactory: uowFactory,
		config:     cfg,
		now:        time.Now,
	}
}

// CreateBet opens a bet. The pool and participant list start empty; the
// creator stakes like anyone else by joining.
func (s *betService) CreateBet(ctx context.Context, params CreateBetParams) (*models.BetDetail, error) {
	params.Title = strings.TrimSpace(params.Title)
	if params.Title == "" {
		return nil, fmt.Errorf("title cannot be empty: %w", models.ErrInvalidInput)
	}
	if len(params.Title) > maxTitleLength {
		return nil, fmt.Errorf("title longer than %d characters: %w", maxTitleLength, models.ErrInvalidInput)
	}
	if params.Category == "" {
		params.Category = models.BetCategoryCustom
	}
	if !params.Category.IsValid() {
		return nil, fmt.Errorf("unknown category %q: %w", params.Category, models.ErrInvalidInput)
	}
	if params.Visibility == "" {
		params.Visibility = models.BetVisibilityPublic
	}
	if !params.Visibility.IsValid() {
		return nil, fmt.Errorf("unknown visibility %q: %w", params.Visibility, models.ErrInvalidInput)
	}
	if params.ExpiresAt != nil && !params.ExpiresAt.After(s.now()) {
		return nil, fmt.Errorf("expiry must be in the future: %w", models.ErrInvalidInput)
	}

	options, err := s.buildOptions(params.Options)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	creator, err := uow.UserRepository().GetByID(ctx, params.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get creator: %w", err)
	}
	if creator == nil {
		return nil, fmt.Errorf("creator %d: %w", params.CreatorID, models.ErrNotFound)
	}

	bet := &models.Bet{
		CreatorID:   params.CreatorID,
		Title:       params.Title,
		Description: strings.TrimSpace(params.Description),
		Category:    params.Category,
		Visibility:  params.Visibility,
		Status:      models.BetStatusOpen,
		TotalPool:   0,
		ExpiresAt:   params.ExpiresAt,
	}

	if err := uow.BetRepository().CreateWithOptions(ctx, bet, options); err != nil {
		return nil, fmt.Errorf("failed to create bet with options: %w", err)
	}

	optionTexts := make([]string, len(options))
	for i, opt := range options {
		optionTexts[i] = opt.Text
	}
	uow.EventBus().Publish(events.BetCreatedEvent{
		BetID:      bet.ID,
		CreatorID:  bet.CreatorID,
		Title:      bet.Title,
		Category:   bet.Category,
		Visibility: bet.Visibility,
		Options:    optionTexts,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.BetDetail{
		Bet:          bet,
		Options:      options,
		Participants: []*models.BetParticipant{},
	}, nil
}

func (s *betService) buildOptions(params []OptionParams) ([]*models.BetOption, error) {
	if len(params) < 2 {
		return nil, fmt.Errorf("must provide at least 2 options: %w", models.ErrInvalidInput)
	}
	if s.config != nil && s.config.MaxBetOptions > 0 && len(params) > s.config.MaxBetOptions {
		return nil, fmt.Errorf("at most %d options allowed: %w", s.config.MaxBetOptions, models.ErrInvalidInput)
	}

	seen := make(map[string]bool, len(params))
	options := make([]*models.BetOption, 0, len(params))
	for i, p := range params {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			return nil, fmt.Errorf("option %d has no text: %w", i, models.ErrInvalidInput)
		}
		if len(text) > maxTitleLength {
			return nil, fmt.Errorf("option %d longer than %d characters: %w", i, maxTitleLength, models.ErrInvalidInput)
		}
		key := strings.ToLower(text)
		if seen[key] {
			return nil, fmt.Errorf("duplicate option %q: %w", text, models.ErrInvalidInput)
		}
		seen[key] = true

		odds := p.Odds
		if odds < 0 {
			return nil, fmt.Errorf("option %d has negative odds: %w", i, models.ErrInvalidInput)
		}
		if odds == 0 {
			odds = 1
		}
		options = append(options, &models.BetOption{
			OptionIndex: i,
			Text:        text,
			Odds:        odds,
		})
	}
	return options, nil
}

// JoinBet debits the user, records the stake and grows the pool in one
// transaction. The bet row stays locked until commit so concurrent joins
// and resolutions on the same bet run one at a time. A user holding an
// unanswered or declined invitation joins through that row.
func (s *betService) JoinBet(ctx context.Context, betID, userID int64, choice string, amount int64) (*models.BetParticipant, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("stake must be positive: %w", models.ErrInvalidInput)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	detail, err := s.lockJoinable(ctx, uow, betID)
	if err != nil {
		return nil, err
	}

	option := detail.FindOption(choice)
	if option == nil {
		return nil, fmt.Errorf("choice %q does not match any option: %w", choice, models.ErrInvalidOutcome)
	}

	existing := detail.Participant(userID)
	if existing != nil && !existing.IsInvitation() {
		return nil, fmt.Errorf("user %d on bet %d: %w", userID, betID, models.ErrAlreadyJoined)
	}

	participant, err := s.placeStake(ctx, uow, detail.Bet, option, userID, amount, existing)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return participant, nil
}

// InviteParticipants records pending invitations for userIDs. Invitations
// hold no money and never count toward the pool.
func (s *betService) InviteParticipants(ctx context.Context, betID, creatorID int64, userIDs []int64, option string) ([]*models.BetParticipant, error) {
	invitees, err := uniqueInvitees(creatorID, userIDs)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := s.lockForCreator(ctx, uow, betID, creatorID)
	if err != nil {
		return nil, err
	}
	if !bet.CanAcceptJoins(s.now()) {
		return nil, fmt.Errorf("bet is %s and not accepting invitations: %w", bet.Status, models.ErrInvalidState)
	}

	detail, err := uow.BetRepository().GetDetailByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet detail: %w", err)
	}
	if detail == nil {
		return nil, fmt.Errorf("bet %d: %w", betID, models.ErrNotFound)
	}

	var suggested *int
	if strings.TrimSpace(option) != "" {
		opt := detail.FindOption(option)
		if opt == nil {
			return nil, fmt.Errorf("option %q does not match any option: %w", option, models.ErrInvalidOutcome)
		}
		suggested = &opt.OptionIndex
	}

	invited := make([]*models.BetParticipant, 0, len(invitees))
	for _, userID := range invitees {
		if detail.Participant(userID) != nil {
			return nil, fmt.Errorf("user %d on bet %d: %w", userID, betID, models.ErrAlreadyJoined)
		}

		user, err := uow.UserRepository().GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get invitee: %w", err)
		}
		if user == nil {
			return nil, fmt.Errorf("invitee %d: %w", userID, models.ErrNotFound)
		}

		participant := &models.BetParticipant{
			BetID:     betID,
			UserID:    userID,
			Status:    models.ParticipantStatusPending,
			InvitedBy: &creatorID,
		}
		if suggested != nil {
			index := *suggested
			participant.InvitedOption = &index
		}
		if err := uow.BetRepository().SaveParticipant(ctx, participant); err != nil {
			return nil, fmt.Errorf("failed to save invitation: %w", err)
		}
		invited = append(invited, participant)
	}

	uow.EventBus().Publish(events.BetInvitedEvent{
		BetID:      betID,
		CreatorID:  creatorID,
		UserIDs:    invitees,
		Title:      bet.Title,
		Visibility: bet.Visibility,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return invited, nil
}

// RespondToInvite answers a pending invitation. Accepting stakes amount
// under the same lock and debit as JoinBet; an empty choice falls back to
// the option suggested in the invitation. Declining moves no money.
func (s *betService) RespondToInvite(ctx context.Context, betID, userID int64, accept bool, choice string, amount int64) (*models.BetParticipant, error) {
	if accept && amount <= 0 {
		return nil, fmt.Errorf("stake must be positive: %w", models.ErrInvalidInput)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByIDForUpdate(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, fmt.Errorf("bet %d: %w", betID, models.ErrNotFound)
	}

	invite, err := uow.BetRepository().GetParticipant(ctx, betID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	if invite == nil || invite.Status != models.ParticipantStatusPending {
		return nil, fmt.Errorf("no pending invitation for user %d on bet %d: %w", userID, betID, models.ErrNotFound)
	}

	if !accept {
		invite.Status = models.ParticipantStatusDeclined
		if err := uow.BetRepository().UpdateParticipantStake(ctx, invite); err != nil {
			return nil, fmt.Errorf("failed to decline invitation: %w", err)
		}
		uow.EventBus().Publish(events.InviteAnsweredEvent{
			BetID:      betID,
			UserID:     userID,
			Accepted:   false,
			Visibility: bet.Visibility,
		})
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return invite, nil
	}

	detail, err := s.joinableDetail(ctx, uow, bet)
	if err != nil {
		return nil, err
	}

	var option *models.BetOption
	if strings.TrimSpace(choice) == "" && invite.InvitedOption != nil {
		option = detail.OptionByIndex(*invite.InvitedOption)
	} else {
		option = detail.FindOption(choice)
	}
	if option == nil {
		return nil, fmt.Errorf("choice %q does not match any option: %w", choice, models.ErrInvalidOutcome)
	}

	uow.EventBus().Publish(events.InviteAnsweredEvent{
		BetID:      betID,
		UserID:     userID,
		Accepted:   true,
		Visibility: bet.Visibility,
	})

	participant, err := s.placeStake(ctx, uow, bet, option, userID, amount, invite)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return participant, nil
}

// ListInvites returns bets with an unanswered invitation for the user
func (s *betService) ListInvites(ctx context.Context, userID int64, limit int) ([]*models.Bet, error) {
	limit = clampLimit(limit)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().ListPendingInvites(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return bets, nil
}

// lockJoinable locks the bet and loads its detail, failing unless it still
// takes stakes
func (s *betService) lockJoinable(ctx context.Context, uow UnitOfWork, betID int64) (*models.BetDetail, error) {
	bet, err := uow.BetRepository().GetByIDForUpdate(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, fmt.Errorf("bet %d: %w", betID, models.ErrNotFound)
	}
	return s.joinableDetail(ctx, uow, bet)
}

func (s *betService) joinableDetail(ctx context.Context, uow UnitOfWork, bet *models.Bet) (*models.BetDetail, error) {
	if !bet.IsOpen() {
		return nil, fmt.Errorf("bet is %s and not accepting stakes: %w", bet.Status, models.ErrInvalidState)
	}
	if bet.IsExpired(s.now()) {
		return nil, fmt.Errorf("bet expired at %s: %w", bet.ExpiresAt.Format(time.RFC3339), models.ErrInvalidState)
	}

	detail, err := uow.BetRepository().GetDetailByID(ctx, bet.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet detail: %w", err)
	}
	if detail == nil {
		return nil, fmt.Errorf("bet %d: %w", bet.ID, models.ErrNotFound)
	}
	detail.Bet = bet
	return detail, nil
}

// placeStake debits the user and adds the stake to the locked bet's pool.
// invite, when set, is the user's invitation row and is turned into the
// stake instead of inserting a new participant.
func (s *betService) placeStake(ctx context.Context, uow UnitOfWork, bet *models.Bet, option *models.BetOption, userID, amount int64, invite *models.BetParticipant) (*models.BetParticipant, error) {
	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, models.ErrNotFound)
	}
	if user.Balance < amount {
		return nil, fmt.Errorf("have %d, need %d: %w", user.Balance, amount, models.ErrInsufficientBalance)
	}

	newBalance, err := uow.UserRepository().DeductBalance(ctx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}

	history := betHistory(userID, bet.ID, newBalance, -amount, models.TransactionTypeBetStake, map[string]any{
		"bet_title": bet.Title,
		"option":    option.Text,
	})
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record stake: %w", err)
	}

	participant := invite
	if participant == nil {
		participant = &models.BetParticipant{BetID: bet.ID, UserID: userID}
	}
	participant.OptionIndex = option.OptionIndex
	participant.Amount = amount
	participant.Status = models.ParticipantStatusAccepted
	participant.BalanceHistoryID = &history.ID

	if invite == nil {
		if err := uow.BetRepository().SaveParticipant(ctx, participant); err != nil {
			return nil, fmt.Errorf("failed to save participant: %w", err)
		}
	} else {
		if err := uow.BetRepository().UpdateParticipantStake(ctx, participant); err != nil {
			return nil, fmt.Errorf("failed to accept invitation: %w", err)
		}
	}

	bet.TotalPool += amount
	if err := uow.BetRepository().Update(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to update bet pool: %w", err)
	}

	uow.EventBus().Publish(events.BetJoinedEvent{
		BetID:       bet.ID,
		UserID:      userID,
		OptionIndex: option.OptionIndex,
		Amount:      amount,
		TotalPool:   bet.TotalPool,
		Visibility:  bet.Visibility,
	})

	return participant, nil
}

// uniqueInvitees drops duplicate ids, keeping first-seen order
func uniqueInvitees(creatorID int64, userIDs []int64) ([]int64, error) {
	if len(userIDs) == 0 {
		return nil, fmt.Errorf("no users to invite: %w", models.ErrInvalidInput)
	}
	if len(userIDs) > maxInvitesPerRequest {
		return nil, fmt.Errorf("at most %d invitations per request: %w", maxInvitesPerRequest, models.ErrInvalidInput)
	}

	seen := make(map[int64]bool, len(userIDs))
	unique := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		if id <= 0 {
			return nil, fmt.Errorf("invalid user id %d: %w", id, models.ErrInvalidInput)
		}
		if id == creatorID {
			return nil, fmt.Errorf("creator cannot invite themselves: %w", models.ErrInvalidInput)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	return unique, nil
}

// ActivateBet moves an open bet to active, closing it to new stakes
func (s *betService) ActivateBet(ctx context.Context, betID, callerID int64) (*models.Bet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := s.lockForCreator(ctx, uow, betID, callerID)
	if err != nil {
		return nil, err
	}
	if !bet.IsOpen() {
		return nil, fmt.Errorf("bet is %s, only open bets can be activated: %w", bet.Status, models.ErrInvalidState)
	}

	bet.Status = models.BetStatusActive
	if err := uow.BetRepository().Update(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to update bet: %w", err)
	}

	uow.EventBus().Publish(events.BetStateChangeEvent{
		BetID:      bet.ID,
		OldState:   models.BetStatusOpen,
		NewState:   models.BetStatusActive,
		Visibility: bet.Visibility,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return bet, nil
}

// ResolveBet settles the bet. Payouts, stats and the status change commit
// together or not at all.
func (s *betService) ResolveBet(ctx context.Context, betID, callerID int64, outcome string) (*models.BetResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := s.lockForCreator(ctx, uow, betID, callerID)
	if err != nil {
		return nil, err
	}
	if !bet.IsSettleable() {
		return nil, fmt.Errorf("bet is already %s: %w", bet.Status, models.ErrInvalidState)
	}

	detail, err := uow.BetRepository().GetDetailByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet detail: %w", err)
	}
	if detail == nil {
		return nil, fmt.Errorf("bet %d: %w", betID, models.ErrNotFound)
	}
	detail.Bet = bet

	winningOption := detail.FindOption(outcome)
	if winningOption == nil {
		return nil, fmt.Errorf("outcome %q does not match any option: %w", outcome, models.ErrInvalidOutcome)
	}

	settlement, err := ComputeSettlement(detail, winningOption.OptionIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to compute settlement: %w", err)
	}

	payouts, err := s.applySettlement(ctx, uow, detail, settlement)
	if err != nil {
		return nil, err
	}

	oldStatus := bet.Status
	now := s.now()
	outcomeIndex := winningOption.OptionIndex
	bet.Status = models.BetStatusResolved
	bet.OutcomeIndex = &outcomeIndex
	bet.ResolvedAt = &now
	if settlement.Refunded {
		bet.TotalPool = 0
	}
	if err := uow.BetRepository().Update(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to update bet: %w", err)
	}

	uow.EventBus().Publish(events.BetStateChangeEvent{
		BetID:      bet.ID,
		OldState:   oldStatus,
		NewState:   models.BetStatusResolved,
		Visibility: bet.Visibility,
	})
	uow.EventBus().Publish(events.BetResolvedEvent{
		BetID:        bet.ID,
		OutcomeIndex: outcomeIndex,
		TotalPool:    settlement.TotalPool,
		WinnerCount:  len(settlement.Winners),
		LoserCount:   len(settlement.Losers),
		Refunded:     settlement.Refunded,
		Category:     bet.Category,
		Visibility:   bet.Visibility,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.BetResult{
		Bet:           bet,
		WinningOption: winningOption,
		Winners:       settlement.Winners,
		Losers:        settlement.Losers,
		Refunded:      settlement.Refunded,
		TotalPool:     settlement.TotalPool,
		PayoutDetails: payouts,
	}, nil
}

// CancelBet refunds every accepted stake and marks the bet cancelled
func (s *betService) CancelBet(ctx context.Context, betID, callerID int64) (*models.BetResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := s.lockForCreator(ctx, uow, betID, callerID)
	if err != nil {
		return nil, err
	}
	if !bet.IsSettleable() {
		return nil, fmt.Errorf("bet is already %s: %w", bet.Status, models.ErrInvalidState)
	}

	detail, err := uow.BetRepository().GetDetailByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet detail: %w", err)
	}
	if detail == nil {
		return nil, fmt.Errorf("bet %d: %w", betID, models.ErrNotFound)
	}
	detail.Bet = bet

	settlement, err := ComputeRefund(detail)
	if err != nil {
		return nil, fmt.Errorf("failed to compute refund: %w", err)
	}

	payouts, err := s.applySettlement(ctx, uow, detail, settlement)
	if err != nil {
		return nil, err
	}

	oldStatus := bet.Status
	bet.Status = models.BetStatusCancelled
	bet.TotalPool = 0
	if err := uow.BetRepository().Update(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to update bet: %w", err)
	}

	uow.EventBus().Publish(events.BetStateChangeEvent{
		BetID:      bet.ID,
		OldState:   oldStatus,
		NewState:   models.BetStatusCancelled,
		Visibility: bet.Visibility,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.BetResult{
		Bet:           bet,
		Refunded:      true,
		TotalPool:     settlement.TotalPool,
		PayoutDetails: payouts,
	}, nil
}

// GetBet returns a bet with its options and participants
func (s *betService) GetBet(ctx context.Context, betID int64) (*models.BetDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	detail, err := uow.BetRepository().GetDetailByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet detail: %w", err)
	}
	if detail == nil {
		return nil, fmt.Errorf("bet %d: %w", betID, models.ErrNotFound)
	}
	return detail, nil
}

// ListPublicBets returns open public bets, newest first
func (s *betService) ListPublicBets(ctx context.Context, limit, offset int) ([]*models.Bet, error) {
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().ListPublicOpen(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list public bets: %w", err)
	}
	return bets, nil
}

// ListUserBets returns bets the user created or joined
func (s *betService) ListUserBets(ctx context.Context, userID int64, limit int) ([]*models.Bet, error) {
	limit = clampLimit(limit)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user bets: %w", err)
	}
	return bets, nil
}

func (s *betService) lockForCreator(ctx context.Context, uow UnitOfWork, betID, callerID int64) (*models.Bet, error) {
	bet, err := uow.BetRepository().GetByIDForUpdate(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, fmt.Errorf("bet %d: %w", betID, models.ErrNotFound)
	}
	if !bet.IsCreator(callerID) {
		return nil, fmt.Errorf("only the creator can change bet %d: %w", betID, models.ErrNotAuthorized)
	}
	return bet, nil
}

// applySettlement writes credits, history and stats. Users are touched in
// ascending ID order so two settlements sharing users cannot deadlock.
func (s *betService) applySettlement(ctx context.Context, uow UnitOfWork, detail *models.BetDetail, settlement *Settlement) (map[int64]int64, error) {
	bet := detail.Bet
	accepted := detail.AcceptedParticipants()
	byID := make(map[int64]*models.BetParticipant, len(accepted))
	for _, p := range accepted {
		byID[p.ID] = p
	}

	credits := make(map[int64][]BalanceDelta)
	stats := make(map[int64]models.StatDelta)
	userIDs := make([]int64, 0, len(accepted))
	seen := make(map[int64]bool)
	for _, c := range creditsByUserID(settlement.Credits) {
		credits[c.UserID] = append(credits[c.UserID], c)
		if !seen[c.UserID] {
			seen[c.UserID] = true
			userIDs = append(userIDs, c.UserID)
		}
	}
	for _, st := range settlement.Stats {
		stats[st.UserID] = st
		if !seen[st.UserID] {
			seen[st.UserID] = true
			userIDs = append(userIDs, st.UserID)
		}
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	payouts := make(map[int64]int64)
	for _, userID := range userIDs {
		for _, credit := range credits[userID] {
			if credit.Amount <= 0 {
				continue
			}
			newBalance, err := uow.UserRepository().AddBalance(ctx, userID, credit.Amount)
			if err != nil {
				return nil, fmt.Errorf("failed to credit user %d: %w", userID, err)
			}

			history := betHistory(userID, bet.ID, newBalance, credit.Amount, credit.Type, map[string]any{
				"bet_title": bet.Title,
			})
			if err := RecordBalanceChange(ctx, uow, history); err != nil {
				return nil, fmt.Errorf("failed to record credit for user %d: %w", userID, err)
			}

			if p, ok := byID[credit.ParticipantID]; ok {
				amount := credit.Amount
				p.PayoutAmount = &amount
				p.BalanceHistoryID = &history.ID
			}
			payouts[userID] += credit.Amount
		}

		if st, ok := stats[userID]; ok {
			if err := uow.UserRepository().ApplyStats(ctx, st); err != nil {
				return nil, fmt.Errorf("failed to update stats for user %d: %w", userID, err)
			}
		}
	}

	for _, loser := range settlement.Losers {
		zero := int64(0)
		loser.PayoutAmount = &zero
		payouts[loser.UserID] = 0
	}
	if settlement.Refunded {
		for _, p := range accepted {
			p.Status = models.ParticipantStatusRefunded
		}
	}

	if len(accepted) > 0 {
		if err := uow.BetRepository().UpdateParticipantPayouts(ctx, accepted); err != nil {
			return nil, fmt.Errorf("failed to update participant payouts: %w", err)
		}
	}

	return payouts, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

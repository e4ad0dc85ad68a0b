package service

import (
	"context"
	"fmt"

	"socialstakes/config"
	"socialstakes/models"

	log "github.com/sirupsen/logrus"
)

// leaderboardService implements the LeaderboardService interface
type leaderboardService struct {
	uowFactory UnitOfWorkFactory
	cache      LeaderboardCache
	config     *config.Config
}

// NewLeaderboardService creates a new leaderboard service. cache may be nil.
func NewLeaderboardService(uowFactory UnitOfWorkFactory, cache LeaderboardCache, cfg *config.Config) LeaderboardService {
	return &leaderboardService{
		uowFactory: uowFactory,
		cache:      cache,
		config:     cfg,
	}
}

// GetGlobal returns users ranked by win rate then wins. Cache failures are
// logged and fall through to the database.
func (s *leaderboardService) GetGlobal(ctx context.Context) ([]*models.LeaderboardEntry, error) {
	limit := s.config.LeaderboardLimit
	if limit <= 0 {
		limit = 100
	}

	if s.cache != nil {
		entries, ok, err := s.cache.Get(ctx, limit)
		if err != nil {
			log.WithError(err).Warn("Leaderboard cache read failed")
		} else if ok {
			return entries, nil
		}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.UserRepository().GetLeaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	for i, entry := range entries {
		entry.Rank = i + 1
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, limit, entries); err != nil {
			log.WithError(err).Warn("Leaderboard cache write failed")
		}
	}

	return entries, nil
}

// GetRanking returns the user's own leaderboard entry
func (s *leaderboardService) GetRanking(ctx context.Context, userID int64) (*models.LeaderboardEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, models.ErrNotFound)
	}

	rank, err := uow.UserRepository().GetRank(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rank: %w", err)
	}

	return &models.LeaderboardEntry{
		Rank:      rank,
		UserID:    user.ID,
		Username:  user.Username,
		Balance:   user.Balance,
		TotalBets: user.Stats.TotalBets,
		Wins:      user.Stats.Wins,
		Losses:    user.Stats.Losses,
		WinRate:   user.Stats.WinRate,
	}, nil
}

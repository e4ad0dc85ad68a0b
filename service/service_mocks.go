package service

import (
	"context"

	"socialstakes/models"

	"github.com/stretchr/testify/mock"
)

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetBalanceHistory(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

func (m *MockUserService) GetCategoryStats(ctx context.Context, userID int64) ([]*models.CategoryStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CategoryStats), args.Error(1)
}

// MockBetService is a mock implementation of BetService
type MockBetService struct {
	mock.Mock
}

func (m *MockBetService) CreateBet(ctx context.Context, params CreateBetParams) (*models.BetDetail, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetDetail), args.Error(1)
}

func (m *MockBetService) JoinBet(ctx context.Context, betID, userID int64, choice string, amount int64) (*models.BetParticipant, error) {
	args := m.Called(ctx, betID, userID, choice, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetParticipant), args.Error(1)
}

func (m *MockBetService) InviteParticipants(ctx context.Context, betID, creatorID int64, userIDs []int64, option string) ([]*models.BetParticipant, error) {
	args := m.Called(ctx, betID, creatorID, userIDs, option)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BetParticipant), args.Error(1)
}

func (m *MockBetService) RespondToInvite(ctx context.Context, betID, userID int64, accept bool, choice string, amount int64) (*models.BetParticipant, error) {
	args := m.Called(ctx, betID, userID, accept, choice, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetParticipant), args.Error(1)
}

func (m *MockBetService) ListInvites(ctx context.Context, userID int64, limit int) ([]*models.Bet, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetService) ActivateBet(ctx context.Context, betID, callerID int64) (*models.Bet, error) {
	args := m.Called(ctx, betID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *MockBetService) ResolveBet(ctx context.Context, betID, callerID int64, outcome string) (*models.BetResult, error) {
	args := m.Called(ctx, betID, callerID, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetResult), args.Error(1)
}

func (m *MockBetService) CancelBet(ctx context.Context, betID, callerID int64) (*models.BetResult, error) {
	args := m.Called(ctx, betID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetResult), args.Error(1)
}

func (m *MockBetService) GetBet(ctx context.Context, betID int64) (*models.BetDetail, error) {
	args := m.Called(ctx, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetDetail), args.Error(1)
}

func (m *MockBetService) ListPublicBets(ctx context.Context, limit, offset int) ([]*models.Bet, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetService) ListUserBets(ctx context.Context, userID int64, limit int) ([]*models.Bet, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

// MockLeaderboardService is a mock implementation of LeaderboardService
type MockLeaderboardService struct {
	mock.Mock
}

func (m *MockLeaderboardService) GetGlobal(ctx context.Context) ([]*models.LeaderboardEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaderboardEntry), args.Error(1)
}

func (m *MockLeaderboardService) GetRanking(ctx context.Context, userID int64) (*models.LeaderboardEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LeaderboardEntry), args.Error(1)
}

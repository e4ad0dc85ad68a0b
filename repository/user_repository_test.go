package repository

import (
	"context"
	"testing"

	"socialstakes/models"
	"socialstakes/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("create user", func(t *testing.T) {
		user, err := repo.Create(ctx, "Alice", "hash", 100000)
		require.NoError(t, err)
		require.NotNil(t, user)

		assert.NotZero(t, user.ID)
		assert.Equal(t, "Alice", user.Username)
		assert.Equal(t, int64(100000), user.Balance)
		assert.Zero(t, user.Stats.TotalBets)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("lookup by username ignores case", func(t *testing.T) {
		user, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "Alice", user.Username)
		assert.Equal(t, "hash", user.PasswordHash)
	})

	t.Run("duplicate username differing only in case", func(t *testing.T) {
		_, err := repo.Create(ctx, "ALICE", "hash", 100000)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrUsernameTaken)
	})

	t.Run("missing user returns nil", func(t *testing.T) {
		user, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, user)

		user, err = repo.GetByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestUserRepository_Balance(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	userID := testutil.InsertUser(t, testDB.DB, "bob", 1000)

	t.Run("add balance", func(t *testing.T) {
		balance, err := repo.AddBalance(ctx, userID, 500)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), balance)
	})

	t.Run("deduct balance", func(t *testing.T) {
		balance, err := repo.DeductBalance(ctx, userID, 1500)
		require.NoError(t, err)
		assert.Equal(t, int64(0), balance)
	})

	t.Run("deduct more than balance", func(t *testing.T) {
		_, err := repo.DeductBalance(ctx, userID, 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrInsufficientBalance)
		assert.Equal(t, int64(0), testutil.GetBalance(t, testDB.DB, userID))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := repo.AddBalance(ctx, 999999, 10)
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = repo.DeductBalance(ctx, 999999, 10)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("non-positive amounts rejected", func(t *testing.T) {
		_, err := repo.AddBalance(ctx, userID, 0)
		assert.Error(t, err)

		_, err = repo.DeductBalance(ctx, userID, -5)
		assert.Error(t, err)
	})
}

func TestUserRepository_StatsAndLeaderboard(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	carol := testutil.InsertUser(t, testDB.DB, "carol", 1000)
	dave := testutil.InsertUser(t, testDB.DB, "dave", 1000)
	erin := testutil.InsertUser(t, testDB.DB, "erin", 1000)

	require.NoError(t, repo.ApplyStats(ctx, models.StatDelta{UserID: carol, TotalBets: 2, Wins: 1, Losses: 1}))
	require.NoError(t, repo.ApplyStats(ctx, models.StatDelta{UserID: dave, TotalBets: 3, Wins: 3}))
	require.NoError(t, repo.ApplyStats(ctx, models.StatDelta{UserID: erin, TotalBets: 1, Wins: 1}))

	t.Run("win rate recomputed", func(t *testing.T) {
		user, err := repo.GetByID(ctx, carol)
		require.NoError(t, err)
		assert.Equal(t, 2, user.Stats.TotalBets)
		assert.InDelta(t, 0.5, user.Stats.WinRate, 1e-9)

		require.NoError(t, repo.ApplyStats(ctx, models.StatDelta{UserID: carol, TotalBets: 1, Losses: 1}))
		user, err = repo.GetByID(ctx, carol)
		require.NoError(t, err)
		assert.Equal(t, 3, user.Stats.TotalBets)
		assert.InDelta(t, 1.0/3.0, user.Stats.WinRate, 1e-9)
	})

	t.Run("leaderboard ordering breaks ties on wins", func(t *testing.T) {
		entries, err := repo.GetLeaderboard(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, dave, entries[0].UserID)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, erin, entries[1].UserID)
		assert.Equal(t, 2, entries[1].Rank)
		assert.Equal(t, carol, entries[2].UserID)
	})

	t.Run("limit applies", func(t *testing.T) {
		entries, err := repo.GetLeaderboard(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("rank matches leaderboard", func(t *testing.T) {
		rank, err := repo.GetRank(ctx, erin)
		require.NoError(t, err)
		assert.Equal(t, 2, rank)

		rank, err = repo.GetRank(ctx, carol)
		require.NoError(t, err)
		assert.Equal(t, 3, rank)
	})

	t.Run("unknown user stats", func(t *testing.T) {
		err := repo.ApplyStats(ctx, models.StatDelta{UserID: 999999, TotalBets: 1})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

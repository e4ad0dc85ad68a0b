package cache

import (
	"context"
	"testing"
	"time"

	"socialstakes/events"
	"socialstakes/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, endpoint, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client
}

func TestLeaderboardCache(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	c := NewLeaderboardCache(client, time.Minute)
	entries := []*models.LeaderboardEntry{
		{Rank: 1, UserID: 2, Username: "bob", Wins: 3, WinRate: 1},
		{Rank: 2, UserID: 1, Username: "alice", Wins: 1, Losses: 1, WinRate: 0.5},
	}

	t.Run("miss", func(t *testing.T) {
		got, ok, err := c.Get(ctx, 10)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, 10, entries))

		got, ok, err := c.Get(ctx, 10)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, entries, got)

		ttl, err := client.TTL(ctx, c.key(10)).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("limits are cached separately", func(t *testing.T) {
		_, ok, err := c.Get(ctx, 5)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalidate drops every limit", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, 5, entries[:1]))
		require.NoError(t, client.Set(ctx, "unrelated", "keep", 0).Err())

		require.NoError(t, c.Invalidate(ctx))

		_, ok, err := c.Get(ctx, 10)
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, err = c.Get(ctx, 5)
		require.NoError(t, err)
		assert.False(t, ok)

		val, err := client.Get(ctx, "unrelated").Result()
		require.NoError(t, err)
		assert.Equal(t, "keep", val)
	})

	t.Run("corrupt entry", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, c.key(3), "not json", 0).Err())
		_, _, err := c.Get(ctx, 3)
		assert.Error(t, err)
	})
}

func TestLeaderboardCache_Subscribe(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	c := NewLeaderboardCache(client, time.Minute)
	bus := events.NewBus()
	c.Subscribe(bus)

	invalidating := []events.Event{
		events.BetResolvedEvent{BetID: 1},
		events.UserCreatedEvent{UserID: 2},
		events.BalanceChangeEvent{UserID: 1, OldBalance: 1000, NewBalance: 900, ChangeAmount: -100},
	}
	for _, event := range invalidating {
		require.NoError(t, c.Set(ctx, 10, []*models.LeaderboardEntry{{Rank: 1, UserID: 1, Balance: 1000}}))

		bus.Emit(ctx, event)

		assert.Eventually(t, func() bool {
			_, ok, err := c.Get(ctx, 10)
			return err == nil && !ok
		}, 2*time.Second, 20*time.Millisecond, string(event.Type()))
	}
}

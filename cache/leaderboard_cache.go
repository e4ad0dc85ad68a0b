package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"socialstakes/events"
	"socialstakes/models"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const defaultKeyPrefix = "socialstakes:leaderboard:"

// LeaderboardCache stores computed leaderboards in Redis as JSON, one key
// per limit.
type LeaderboardCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	return client, nil
}

// NewLeaderboardCache creates a cache. A non-positive ttl keeps entries
// until they are invalidated.
func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    ttl,
	}
}

func (c *LeaderboardCache) key(limit int) string {
	return c.prefix + strconv.Itoa(limit)
}

// Get returns the cached leaderboard for limit and whether it was present
func (c *LeaderboardCache) Get(ctx context.Context, limit int) ([]*models.LeaderboardEntry, bool, error) {
	data, err := c.client.Get(ctx, c.key(limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read leaderboard cache: %w", err)
	}

	var entries []*models.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached leaderboard: %w", err)
	}
	return entries, true, nil
}

// Set stores the leaderboard for limit
func (c *LeaderboardCache) Set(ctx context.Context, limit int, entries []*models.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard: %w", err)
	}

	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.key(limit), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write leaderboard cache: %w", err)
	}
	return nil
}

// Invalidate deletes every cached leaderboard
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan leaderboard keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete leaderboard keys: %w", err)
	}
	return nil
}

// Subscribe drops cached leaderboards whenever rankings or the balances
// shown beside them can change
func (c *LeaderboardCache) Subscribe(bus *events.Bus) {
	handler := func(ctx context.Context, event events.Event) {
		if err := c.Invalidate(ctx); err != nil {
			log.WithError(err).WithField("eventType", event.Type()).Warn("Failed to invalidate leaderboard cache")
		}
	}
	bus.Subscribe(events.EventTypeBetResolved, handler)
	bus.Subscribe(events.EventTypeUserCreated, handler)
	bus.Subscribe(events.EventTypeBalanceChange, handler)
}

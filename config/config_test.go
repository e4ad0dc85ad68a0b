package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("STARTING_BALANCE", "")
	t.Setenv("EVENT_SINK", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, int64(100000), cfg.StartingBalance)
	assert.Equal(t, 10, cfg.MaxBetOptions)
	assert.Equal(t, 100, cfg.LeaderboardLimit)
	assert.Equal(t, time.Minute, cfg.LeaderboardCacheTTL)
	assert.Equal(t, EventSinkNone, cfg.EventSink)
	assert.Equal(t, "socialstakes.events", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("STARTING_BALANCE", "5000")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,,")
	t.Setenv("EVENT_SINK", "KAFKA")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, int64(5000), cfg.StartingBalance)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, EventSinkKafka, cfg.EventSink)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("STARTING_BALANCE", "lots")
	t.Setenv("LEADERBOARD_CACHE_TTL", "soon")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, int64(100000), cfg.StartingBalance)
	assert.Equal(t, time.Minute, cfg.LeaderboardCacheTTL)
}

func TestLoad_RequiresSettingsOutsideTest(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	_, err := load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DatabaseURL:     "postgres://localhost:5432",
			JWTSecret:       "secret",
			StartingBalance: 1000,
			MaxBetOptions:   10,
			EventSink:       EventSinkNone,
		}
	}

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		cfg := valid()
		cfg.JWTSecret = ""
		assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")
	})

	t.Run("nats sink requires url", func(t *testing.T) {
		cfg := valid()
		cfg.EventSink = EventSinkNATS
		assert.ErrorContains(t, cfg.Validate(), "NATS_URL")

		cfg.NATSURL = "nats://localhost:4222"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("kafka sink requires brokers", func(t *testing.T) {
		cfg := valid()
		cfg.EventSink = EventSinkKafka
		assert.ErrorContains(t, cfg.Validate(), "KAFKA_BROKERS")
	})

	t.Run("unknown sink", func(t *testing.T) {
		cfg := valid()
		cfg.EventSink = "carrier-pigeon"
		assert.ErrorContains(t, cfg.Validate(), "EVENT_SINK")
	})

	t.Run("too few options", func(t *testing.T) {
		cfg := valid()
		cfg.MaxBetOptions = 1
		assert.ErrorContains(t, cfg.Validate(), "MAX_BET_OPTIONS")
	})
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Event sink choices for forwarding domain events off-process
const (
	EventSinkNone  = "none"
	EventSinkNATS  = "nats"
	EventSinkKafka = "kafka"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string
	DBMaxConns   int32

	// HTTP configuration
	HTTPPort        int
	ShutdownTimeout time.Duration

	// Auth configuration
	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	// Betting configuration
	StartingBalance int64 // minor units
	MaxBetOptions   int

	// Leaderboard configuration
	LeaderboardLimit    int
	LeaderboardCacheTTL time.Duration

	// Redis configuration; caching is disabled when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Event forwarding
	EventSink         string
	NATSURL           string
	NATSSubjectPrefix string
	KafkaBrokers      []string
	KafkaTopic        string

	// Environment
	Environment string // "development", "production" or "test"
	LogLevel    string
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables
// take precedence over it.
func load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),
		DBMaxConns:   int32(envInt("DB_MAX_CONNS", 10)),

		HTTPPort:        envInt("HTTP_PORT", 8080),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		JWTTTL:     envDuration("JWT_TTL", 24*time.Hour),
		BcryptCost: envInt("BCRYPT_COST", 10),

		StartingBalance: envInt64("STARTING_BALANCE", 100000),
		MaxBetOptions:   envInt("MAX_BET_OPTIONS", 10),

		LeaderboardLimit:    envInt("LEADERBOARD_LIMIT", 100),
		LeaderboardCacheTTL: envDuration("LEADERBOARD_CACHE_TTL", time.Minute),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		EventSink:         strings.ToLower(os.Getenv("EVENT_SINK")),
		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: os.Getenv("NATS_SUBJECT_PREFIX"),
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:        os.Getenv("KAFKA_TOPIC"),

		Environment: os.Getenv("ENVIRONMENT"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}

	if config.Environment == "" {
		config.Environment = "development"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.EventSink == "" {
		config.EventSink = EventSinkNone
	}
	if config.NATSSubjectPrefix == "" {
		config.NATSSubjectPrefix = "socialstakes"
	}
	if config.KafkaTopic == "" {
		config.KafkaTopic = "socialstakes.events"
	}

	if config.Environment != "test" {
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// Validate checks required settings and cross-field consistency
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.StartingBalance < 0 {
		return fmt.Errorf("STARTING_BALANCE cannot be negative")
	}
	if c.MaxBetOptions < 2 {
		return fmt.Errorf("MAX_BET_OPTIONS must be at least 2")
	}
	switch c.EventSink {
	case EventSinkNone:
	case EventSinkNATS:
		if c.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required when EVENT_SINK=nats")
		}
	case EventSinkKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when EVENT_SINK=kafka")
		}
	default:
		return fmt.Errorf("unknown EVENT_SINK %q", c.EventSink)
	}
	return nil
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

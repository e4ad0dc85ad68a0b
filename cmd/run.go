package cmd

import (
	"context"
	"fmt"
	"time"

	"socialstakes/cache"
	"socialstakes/config"
	"socialstakes/database"
	"socialstakes/events"
	"socialstakes/infrastructure"
	"socialstakes/infrastructure/observability"
	"socialstakes/repository"
	"socialstakes/server"
	"socialstakes/server/features/feed"
	"socialstakes/service"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting socialstakes")

	// Initialize database connection
	databaseURL := database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName)
	log.WithField("url", database.RedactURL(databaseURL)).Info("Connecting to database")
	db, err := database.NewConnectionWithOptions(ctx, databaseURL, database.PoolOptions{
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrationsWithURL(databaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Event bus and subscribers
	eventBus := events.NewBus()

	metrics := observability.NewMetrics()
	metrics.Subscribe(eventBus)

	var leaderboardCache service.LeaderboardCache
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer closeRedis(redisClient)

		lc := cache.NewLeaderboardCache(redisClient, cfg.LeaderboardCacheTTL)
		lc.Subscribe(eventBus)
		leaderboardCache = lc
		log.WithField("addr", cfg.RedisAddr).Info("Leaderboard cache enabled")
	}

	forwarder, err := newEventForwarder(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	if forwarder != nil {
		forwarder.Subscribe(eventBus)
		defer func() {
			if err := forwarder.Close(); err != nil {
				log.WithError(err).Warn("Failed to close event forwarder")
			}
		}()
	}

	hub := feed.NewHub()
	hub.Subscribe(eventBus)
	defer hub.Close()

	// Services
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	services := server.Services{
		Users:       service.NewUserService(uowFactory, cfg),
		Bets:        service.NewBetService(uowFactory, cfg),
		Leaderboard: service.NewLeaderboardService(uowFactory, leaderboardCache, cfg),
	}

	srv := server.New(server.Config{
		Port:      cfg.HTTPPort,
		JWTSecret: cfg.JWTSecret,
		Release:   cfg.Environment == "production",
	}, services, metrics, hub)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	log.Info("Shutdown completed")
	return nil
}

// ConfigureLogging applies the configured level and formatter
func ConfigureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// newEventForwarder connects the configured external sink. It returns nil
// when forwarding is disabled.
func newEventForwarder(ctx context.Context, cfg *config.Config, recorder infrastructure.ForwardRecorder) (*infrastructure.EventForwarder, error) {
	mapper := infrastructure.NewEventSubjectMapper(cfg.NATSSubjectPrefix)

	switch cfg.EventSink {
	case config.EventSinkNATS:
		client := infrastructure.NewNATSClient(cfg.NATSURL)
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		if err := client.EnsureEventStream(mapper.Wildcard()); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to ensure NATS stream: %w", err)
		}
		return infrastructure.NewEventForwarder(config.EventSinkNATS, client, mapper, recorder), nil

	case config.EventSinkKafka:
		publisher := infrastructure.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.WithFields(log.Fields{
			"brokers": cfg.KafkaBrokers,
			"topic":   cfg.KafkaTopic,
		}).Info("Forwarding events to Kafka")
		return infrastructure.NewEventForwarder(config.EventSinkKafka, publisher, mapper, recorder), nil

	default:
		return nil, nil
	}
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		log.WithError(err).Warn("Failed to close redis client")
	}
}

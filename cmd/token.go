package cmd

import (
	"context"
	"fmt"

	"socialstakes/auth"
	"socialstakes/config"
	"socialstakes/database"
	"socialstakes/events"
	"socialstakes/repository"
	"socialstakes/service"
)

// IssueToken checks a username and password against the database and signs
// a token for local development.
func IssueToken(ctx context.Context, username, password string) (string, error) {
	cfg := config.Get()
	ConfigureLogging(cfg)

	db, err := database.NewConnection(ctx, database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName))
	if err != nil {
		return "", fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	userService := service.NewUserService(repository.NewUnitOfWorkFactory(db, events.NewBus()), cfg)
	user, err := userService.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}

	return auth.GenerateToken(user.ID, cfg.JWTSecret, cfg.JWTTTL)
}

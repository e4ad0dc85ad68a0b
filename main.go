package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"socialstakes/cmd"
	"socialstakes/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := handleMigrationCommand(); err != nil {
				log.Fatal("Migration error: ", err)
			}
			return
		case "token":
			if err := handleTokenCommand(); err != nil {
				log.Fatal("Token error: ", err)
			}
			return
		case "serve":
		default:
			log.Fatalf("unknown command %q (usage: socialstakes [serve|migrate|token])", os.Args[1])
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: socialstakes migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

func handleTokenCommand() error {
	if len(os.Args) != 4 {
		return fmt.Errorf("usage: socialstakes token <username> <password>")
	}

	token, err := cmd.IssueToken(context.Background(), os.Args[2], os.Args[3])
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

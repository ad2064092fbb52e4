package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ms-companion/internal/config"
	"ms-companion/internal/database"
	"ms-companion/internal/logger"
	"ms-companion/internal/raffle"
)

func main() {
	log := logger.NewLogger("raffle-backfill")
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer clients.Close()

	// Check-ins of every participant are scanned, so this runs on the admin pool.
	service := raffle.NewService(raffle.NewDB(clients.Admin), log)

	issued, err := service.BackfillTickets(ctx)
	if err != nil {
		log.Fatal("RAFFLE", fmt.Sprintf("Backfill stopped after %d tickets: %v", issued, err))
	}
	log.Info("RAFFLE", fmt.Sprintf("✅ Backfill complete, %d tickets issued", issued))
}

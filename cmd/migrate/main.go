package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"ms-companion/internal/config"
	"ms-companion/internal/database/migrations"
	"ms-companion/internal/logger"
)

func main() {
	dir := flag.String("dir", "", "migrations directory (defaults to MIGRATIONS_DIR)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: migrate [-dir path] up|down\n")
	}
	flag.Parse()

	log := logger.NewLogger("migrate")
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()
	if cfg.Database.AdminDSN == "" {
		log.Fatal("CONFIG", "POSTGRES_ADMIN_DSN or POSTGRES_DSN must be set")
	}
	if *dir != "" {
		cfg.Database.MigrationsDir = *dir
	}

	runner := migrations.NewRunner(cfg.Database.AdminDSN, cfg.Database.MigrationsDir, log)
	defer func() {
		if err := runner.Close(); err != nil {
			log.Warn("MIGRATION", fmt.Sprintf("Closing migrator: %v", err))
		}
	}()

	var err error
	switch flag.Arg(0) {
	case "up", "":
		log.Info("MIGRATION", "Applying migrations...")
		err = runner.Up()
	case "down":
		log.Warn("MIGRATION", "Rolling back all migrations...")
		err = runner.Down()
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("MIGRATION", err.Error())
	}
	log.Info("MIGRATION", "✅ Done.")
}

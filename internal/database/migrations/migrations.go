package migrations

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"ms-companion/internal/logger"
)

// Runner applies the SQL files in MigrationsDir over its own connection, opened
// from the privileged DSN. Close releases that connection only.
type Runner struct {
	dsn      string
	dir      string
	log      *logger.Logger
	migrator *migrate.Migrate
}

func NewRunner(dsn, dir string, log *logger.Logger) *Runner {
	return &Runner{dsn: dsn, dir: dir, log: log}
}

func (r *Runner) initialize() error {
	if r.migrator != nil {
		return nil
	}

	if _, err := os.Stat(r.dir); os.IsNotExist(err) {
		return fmt.Errorf("migrations directory does not exist: %s", r.dir)
	}

	migrator, err := migrate.New(fmt.Sprintf("file://%s", r.dir), r.dsn)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	r.migrator = migrator
	return nil
}

// Up runs all pending migrations. A dirty schema is reported, not forced.
func (r *Runner) Up() error {
	if err := r.initialize(); err != nil {
		return err
	}

	version, dirty, err := r.migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty, fix it manually before migrating", version)
	}

	if err := r.migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	version, _, err = r.migrator.Version()
	if err == nil {
		r.log.LogDatabase("MIGRATE", "schema_migrations", fmt.Sprintf("current version %d", version))
	} else if !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	return nil
}

// Down rolls back every migration.
func (r *Runner) Down() error {
	if err := r.initialize(); err != nil {
		return err
	}
	if err := r.migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

func (r *Runner) Close() error {
	if r.migrator == nil {
		return nil
	}
	sourceErr, databaseErr := r.migrator.Close()
	if sourceErr != nil {
		return fmt.Errorf("error closing migrator source: %w", sourceErr)
	}
	if databaseErr != nil {
		return fmt.Errorf("error closing migrator database: %w", databaseErr)
	}
	return nil
}

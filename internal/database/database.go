package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-companion/internal/config"
	"ms-companion/internal/logger"
)

// Clients holds the two trust levels of access to the same store. Admin bypasses
// row security and is only handed to operations that act on another user's rows
// or on identity data; User is the restricted application role.
type Clients struct {
	Admin *bun.DB
	User  *bun.DB
}

func (c *Clients) Close() {
	if c.User != nil && c.User != c.Admin {
		c.User.Close()
	}
	if c.Admin != nil {
		c.Admin.Close()
	}
}

// Connect opens both pools, retrying each ping a few times while Postgres starts.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Clients, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN not set")
	}

	admin, err := open(ctx, "admin", cfg.AdminDSN, cfg, log)
	if err != nil {
		return nil, err
	}
	if cfg.AdminDSN == cfg.DSN {
		log.Warn("DATABASE", "POSTGRES_ADMIN_DSN not set, privileged and restricted access share one pool")
		return &Clients{Admin: admin, User: admin}, nil
	}

	user, err := open(ctx, "restricted", cfg.DSN, cfg, log)
	if err != nil {
		admin.Close()
		return nil, err
	}
	return &Clients{Admin: admin, User: user}, nil
}

func open(ctx context.Context, name, dsn string, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	retries := cfg.ConnectRetry
	if retries < 1 {
		retries = 1
	}

	var sqldb *sql.DB
	var err error
	for i := 0; i < retries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting %s pool to PostgreSQL (attempt %d/%d)", name, i+1, retries))
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.PingContext(ctx)
		if err == nil {
			break
		}
		sqldb.Close()

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < retries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s pool after %d attempts: %w", name, retries, err)
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.LogDatabase("CONNECT", name, fmt.Sprintf("✅ PostgreSQL pool ready (max %d open)", cfg.MaxOpenConns))
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// Package database opens the Postgres pool and applies schema migrations
// for the postgres storage driver.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	coreconfig "github.com/vpasslabs/signalbot/core/config"
	"github.com/vpasslabs/signalbot/core/logger"
)

// Connect opens the pool, verifies connectivity and applies pool limits.
func Connect(ctx context.Context, cfg coreconfig.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
	)

	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(connCtx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 5
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	logger.Info(ctx, "db", "db.connected",
		slog.String("host", cfg.Host),
		slog.String("db", cfg.Name),
		slog.Int("pool_open", maxConns),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return db, nil
}

// RunMigrations applies every pending up migration from migrationsDir.
func RunMigrations(ctx context.Context, cfg coreconfig.DatabaseConfig, migrationsDir string) error {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
	)

	m, err := migrate.New("file://"+migrationsDir, dsn)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn(ctx, "db", "db.migrate_close",
				slog.Any("source_err", srcErr),
				slog.Any("db_err", dbErr),
			)
		}
	}()

	start := time.Now()
	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			logger.Info(ctx, "db", "db.migrate_noop")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}

	logger.Info(ctx, "db", "db.migrated",
		slog.String("dir", migrationsDir),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

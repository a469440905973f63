// Package database provides connection management for the PostgreSQL and SQLite
// backends and owns their embedded schemas.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/uppalapadu/watersafe/internal/config"
)

const connectAttempts = 5

// connectBackoff runs between failed connection attempts.
var connectBackoff = func() { time.Sleep(2 * time.Second) }

// NewPool creates and validates a pgxpool connection pool, then applies the schema.
// It retries up to connectAttempts times to accommodate containers starting up.
func NewPool(ctx context.Context, cfg config.PostgresConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		log.Warn("db connect attempt failed",
			zap.Int("attempt", attempt), zap.Int("max_attempts", connectAttempts), zap.Error(err))
		if attempt < connectAttempts {
			connectBackoff()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := MigratePostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// MigratePostgres applies the embedded PostgreSQL schema. Statements are idempotent.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	schema, err := schemaFS.ReadFile("schema/postgres.sql")
	if err != nil {
		return fmt.Errorf("read postgres schema: %w", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		return fmt.Errorf("apply postgres schema: %w", err)
	}
	return nil
}

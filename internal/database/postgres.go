// Package database owns the PostgreSQL pool and schema migrations of the
// local list backend.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BusselW/DDH3/internal/config"
	"github.com/BusselW/DDH3/internal/logger"
)

const (
	connectTimeout    = 5 * time.Second
	maxConnIdleTime   = 30 * time.Second
	maxConnLifetime   = time.Hour
	healthCheckPeriod = time.Minute
)

// Database wraps the pgx connection pool backing the local list backend.
type Database struct {
	Pool *pgxpool.Pool
	log  *logger.Logger
}

// NewPostgresPool opens a pool sized by cfg and pings it once. The pool
// is closed again when the ping fails.
func NewPostgresPool(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MinConns = int32(cfg.PoolMin)
	poolConfig.MaxConns = int32(cfg.PoolMax)
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.HealthCheckPeriod = healthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &Database{Pool: pool, log: log.Component("database")}
	db.log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Host,
		"database": cfg.Name,
		"pool_min": cfg.PoolMin,
		"pool_max": cfg.PoolMax,
	})
	return db, nil
}

// Ping checks if the database connection is alive.
func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close logs the final pool usage and closes every connection.
func (db *Database) Close() {
	if db.Pool == nil {
		return
	}
	stat := db.Pool.Stat()
	db.log.Info("Closing database pool", map[string]interface{}{
		"acquire_count":  stat.AcquireCount(),
		"total_conns":    stat.TotalConns(),
		"acquired_conns": stat.AcquiredConns(),
	})
	db.Pool.Close()
}

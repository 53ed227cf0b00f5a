package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/securereq/securereq-engine/pkg/config"
)

// DB wraps the engine's pgxpool connection pool. Repositories take it
// directly; everything else goes through them.
type DB struct {
	*pgxpool.Pool
}

// Pool sizing applied when the configuration leaves MaxConnections zero.
// Lifetime and idle caps keep long-lived pools from pinning stale
// connections across database failovers.
const (
	defaultMaxConns = 25
	connLifetime    = time.Hour
	connIdleTime    = 30 * time.Minute
)

// NewConnection opens a connection pool for the engine database and verifies
// it with a ping.
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = defaultMaxConns
	}
	poolConfig.MaxConnLifetime = connLifetime
	poolConfig.MaxConnIdleTime = connIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

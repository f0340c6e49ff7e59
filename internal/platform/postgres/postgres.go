// Package postgres opens the pgx connection pool for the persistent
// stores.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"authgate/internal/platform/config"
)

// New opens a connection pool and verifies it with a ping. Returns nil
// when no URL is configured, which selects the in-memory stores.
func New(ctx context.Context, cfg config.Store) (*pgxpool.Pool, error) {
	if cfg.PostgresURL == "" {
		return nil, nil
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

// Package postgres implements the persistence collaborator interfaces over
// a pgx connection pool. The schema itself (migrations, row-level policies)
// is owned elsewhere; this package only reads and upserts.
package postgres

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// dialTimeout bounds the initial connection attempt
const dialTimeout = 5 * time.Second

// Connect creates a pgx pool against the given database URL
func Connect(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.ConnConfig.RuntimeParams["application_name"] = "chemdex"

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log.Printf("[DB] connected (max_conns=%d)", cfg.MaxConns)
	return pool, nil
}

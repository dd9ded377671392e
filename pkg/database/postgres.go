package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wonny/tradingquiz/pkg/config"
)

const connectTimeout = 5 * time.Second

// DB owns the pgx pool shared by the postgres store and migrations
// ⭐ SSOT: database connections are created only in this package
type DB struct {
	Pool *pgxpool.Pool
}

// Open builds a pool from cfg and fails unless the server answers a ping
// within connectTimeout.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close is safe to call more than once.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping satisfies the API health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Health is what test-db reports about a live database.
type Health struct {
	Latency       time.Duration
	SchemaVersion int64
	MaxConns      int32
	TotalConns    int32
	IdleConns     int32
}

// HealthCheck pings the server, reads the applied schema version and
// snapshots the pool counters.
func (db *DB) HealthCheck(ctx context.Context) (*Health, error) {
	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	h := &Health{Latency: time.Since(start)}

	version, err := db.MigrationVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	h.SchemaVersion = version

	stat := db.Pool.Stat()
	h.MaxConns = stat.MaxConns()
	h.TotalConns = stat.TotalConns()
	h.IdleConns = stat.IdleConns()
	return h, nil
}

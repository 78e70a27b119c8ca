package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // Import postgres driver
)

// Pool — параметры пула соединений database/sql.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// ServerPool serves the HTTP API: every request touches the store.
var ServerPool = Pool{MaxOpen: 25, MaxIdle: 25, MaxLifetime: 5 * time.Minute}

// ToolPool is enough for one-shot commands (migrate, seed, referee).
var ToolPool = Pool{MaxOpen: 2, MaxIdle: 1, MaxLifetime: time.Minute}

// Connect opens the documents database and pings it before ctx expires.
func Connect(ctx context.Context, dsn string, pool Pool, logger *slog.Logger) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}
	conn.SetMaxOpenConns(pool.MaxOpen)
	conn.SetMaxIdleConns(pool.MaxIdle)
	conn.SetConnMaxLifetime(pool.MaxLifetime)

	start := time.Now()
	if err := conn.PingContext(ctx); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to close database handle after ping error", slog.Any("error", closeErr))
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		slog.Int("max_open_conns", pool.MaxOpen),
		slog.Duration("ping", time.Since(start)))
	return conn, nil
}

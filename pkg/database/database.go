// Package database opens the PostgreSQL pool and ties its readiness check
// and shutdown to the process lifecycle.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/docent/pkg/lifecycle"
)

// System owns the connection pool.
type System interface {
	// Connection returns the pool.
	Connection() *sql.DB
	// Start registers the startup ping and the shutdown close.
	Start(lc *lifecycle.Coordinator) error
	// Ping verifies connectivity within the configured connect timeout,
	// returning an error wrapping ErrNotReady on failure.
	Ping(ctx context.Context) error
}

type database struct {
	conn        *sql.DB
	logger      *slog.Logger
	connTimeout time.Duration
}

// New parses the connection settings and sizes the pool. No connection is
// made until the first query or Ping.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	connCfg, err := pgx.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	connCfg.ConnectTimeout = cfg.ConnTimeoutDuration()

	db := stdlib.OpenDB(*connCfg)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		conn: db,
		logger: logger.With(
			"system", "database",
			"host", connCfg.Host,
			"database", connCfg.Database,
		),
		connTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, d.connTimeout)
	defer cancel()

	if err := d.conn.PingContext(pingCtx); err != nil {
		return fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	return nil
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup("database", func(ctx context.Context) error {
		if err := d.Ping(ctx); err != nil {
			d.logger.Error("database ping failed", "error", err)
			return err
		}
		d.logger.Info("database reachable", "max_open_conns", d.conn.Stats().MaxOpenConnections)
		return nil
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		stats := d.conn.Stats()
		if err := d.conn.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
			return
		}
		d.logger.Info("database pool closed", "in_use", stats.InUse, "wait_count", stats.WaitCount)
	})

	return nil
}

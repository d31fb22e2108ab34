package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/fundalink/fundalink-api/pkg/config"
)

const (
	pingTimeout   = 5 * time.Second
	retryInterval = 2 * time.Second
)

// NewPostgres opens the relational store and waits until it answers a ping. Startup
// tolerates cfg.ConnectRetries failed pings so the API can boot alongside the database.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	applyPool(db, cfg)

	if err := waitForPing(ctx, db, cfg.ConnectRetries, retryInterval); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func applyPool(db *sqlx.DB, cfg config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)
}

type pinger interface {
	PingContext(ctx context.Context) error
}

func waitForPing(ctx context.Context, db pinger, retries int, interval time.Duration) error {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("ping postgres: %w", ctx.Err())
			case <-time.After(interval):
			}
		}
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = db.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("ping postgres after %d attempts: %w", retries+1, lastErr)
}

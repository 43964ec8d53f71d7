// Package postgres stores bookmarks in PostgreSQL through pgx v5.
package postgres

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmap/internal/config"
)

const (
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
	pingTimeout     = 5 * time.Second
)

// Pool is a pgx pool that remembers whether its last health check passed.
type Pool struct {
	db      *pgxpool.Pool
	healthy atomic.Bool
}

// Connect opens a pool for cfg and pings it, retrying with a doubling delay
// while the server is not yet accepting connections.
//
// Precondition: cfg passed config validation.
// Postcondition: returns a pool that answered a ping, or an error once
// every attempt failed or ctx ended.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	pc.MaxConns, pc.MinConns = cfg.MaxConns, cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime

	db, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	p := &Pool{db: db}
	delay := connectBackoff
	for attempt := 1; ; attempt++ {
		if err = p.ping(ctx); err == nil {
			p.healthy.Store(true)
			return p, nil
		}
		if attempt == connectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("connecting to database: %w", ctx.Err())
		case <-time.After(delay):
			delay *= 2
		}
	}
	db.Close()
	return nil, fmt.Errorf("pinging database after %d attempts: %w", connectAttempts, err)
}

func (p *Pool) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.db.Ping(ctx)
}

// Healthy reports the outcome of the most recent ping.
func (p *Pool) Healthy() bool {
	return p.healthy.Load()
}

// Monitor pings every interval until ctx ends. A failing database is logged
// when it goes down and again when it recovers; the server keeps running
// either way.
func (p *Pool) Monitor(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		err := p.ping(ctx)
		if ctx.Err() != nil {
			return
		}
		was := p.healthy.Swap(err == nil)
		switch {
		case err != nil && was:
			logger.Warn("database unreachable", zap.Error(err))
		case err == nil && !was:
			logger.Info("database reachable again")
		}
	}
}

// Close releases every connection. The pool is unusable afterwards.
func (p *Pool) Close() {
	p.healthy.Store(false)
	p.db.Close()
}

// DB exposes the pgx pool to repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.db
}

// Package pgpool provides the pooled Postgres resource the load-testing
// harness executes its unit of work against.
package pgpool

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dbpulse/dbpulse/pkg/harness"
)

const (
	// The pool holds slightly more connections than there are workers so a
	// re-acquiring worker never starves the others.
	poolHeadroom = 2

	acquireTimeout = 5 * time.Second
)

// Pool wraps a pgxpool.Pool behind the harness's ResourcePool interface:
// acquire a working handle or fail.
type Pool struct {
	pool *pgxpool.Pool
}

var _ harness.ResourcePool = (*Pool)(nil)

// New opens a connection pool bounded to workerCount+2 connections against
// the given database. The pool is pinged before being returned, so a
// database that is down fails construction rather than the first request.
func New(ctx context.Context, databaseURL string, workerCount int) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	cfg.MaxConns = int32(workerCount + poolHeadroom)
	cfg.ConnConfig.ConnectTimeout = acquireTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Pool{pool: pool}, nil
}

// Acquire checks a connection out of the pool, verifying its liveness before
// handing it to the caller.
func (p *Pool) Acquire(ctx context.Context) (harness.Handle, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()

	conn, err := p.pool.Acquire(acquireCtx)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(acquireCtx); err != nil {
		conn.Release()
		return nil, err
	}
	return &pgHandle{conn: conn}, nil
}

// Close releases all pooled connections.
func (p *Pool) Close() {
	p.pool.Close()
}

// pgHandle is a checked-out connection, exclusively owned by one worker
// until released.
type pgHandle struct {
	conn *pgxpool.Conn
}

var _ harness.Handle = (*pgHandle)(nil)

func (h *pgHandle) Release() {
	h.conn.Release()
}

// InsertWork returns the harness's unit of work: a single INSERT into the
// given table keyed by the request id.
func InsertWork(table string) harness.UnitOfWork {
	query := fmt.Sprintf("INSERT INTO %s (id, created_at) VALUES ($1, NOW())", table)
	return func(ctx context.Context, h harness.Handle, req *harness.WorkRequest) error {
		ph, ok := h.(*pgHandle)
		if !ok {
			return fmt.Errorf("expected a Postgres handle, but got %T", h)
		}
		_, err := ph.conn.Exec(ctx, query, req.ID)
		return err
	}
}

// Package store is the relational store gateway (C3): a pgxpool-backed
// gateway over the match/participant/event/fight/aggregate schema.
// Grounded on Baldr96-statsiq_aggregate_worker's AggregateWriter —
// advisory-lock-guarded transactions and CopyFrom bulk inserts —
// generalized from one aggregate family to the full schema this
// pipeline owns.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Gateway is the store's single entry point; one per process, shared
// across every component that persists rows.
type Gateway struct {
	pool *pgxpool.Pool
}

// New connects a pool against dsn and wraps it in a Gateway.
func New(ctx context.Context, dsn string) (*Gateway, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Gateway{pool: pool}, nil
}

// NewFromPool wraps an already-constructed pool, for callers sharing
// one pool across multiple gateways.
func NewFromPool(pool *pgxpool.Pool) *Gateway {
	return &Gateway{pool: pool}
}

// Close releases the underlying connection pool.
func (g *Gateway) Close() {
	g.pool.Close()
}

// Pool exposes the underlying pool for components (migrations,
// health checks) that need direct access.
func (g *Gateway) Pool() *pgxpool.Pool {
	return g.pool
}

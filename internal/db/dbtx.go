// Package db holds the shared database-access primitives used by every
// domain store package. There is no code generator here — queries are
// hand-written against DBTX, the same pattern nightowl's domain packages
// (incident, escalation) use directly against a pgx connection or pool.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx, and *pgxpool.Conn. Every
// store's constructor takes a DBTX so the same store code runs whether it is
// given a bare pool connection or an in-flight transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WithTx runs fn inside a transaction opened on pool, committing on success
// and rolling back on error or panic. This is the only transaction
// boundary helper the core uses — callers never hold a transaction open
// across an external probe call (Design Note: short claim/complete/fail
// transactions, never across adapter execution).
func WithTx(ctx context.Context, pool Beginner, fn func(tx pgx.Tx) error) (err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	err = fn(tx)
	return err
}

// Beginner is satisfied by *pgxpool.Pool.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

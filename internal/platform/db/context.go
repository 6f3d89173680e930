package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const (
	connKey contextKey = "db_conn"
	txKey   contextKey = "db_tx"
)

// Querier is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx, letting
// repositories run against whichever the context carries.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// WithConn returns a context carrying a dedicated connection. Repositories
// prefer it over the shared pool when present.
func WithConn(ctx context.Context, conn *pgxpool.Conn) context.Context {
	return context.WithValue(ctx, connKey, conn)
}

// ConnFromContext returns the dedicated connection on the context, or nil.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(connKey).(*pgxpool.Conn)
	return conn
}

// WithTx begins a transaction on the pool and returns a context carrying it.
// The returned done func commits on nil error and rolls back otherwise.
func WithTx(ctx context.Context, pool *pgxpool.Pool) (context.Context, func(error) error, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("begin transaction: %w", err)
	}
	done := func(opErr error) error {
		if opErr != nil {
			_ = tx.Rollback(ctx)
			return opErr
		}
		return tx.Commit(ctx)
	}
	return context.WithValue(ctx, txKey, tx), done, nil
}

// TxFromContext returns the transaction on the context, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}

// Resolve picks the querier for a repository call: transaction first, then a
// dedicated connection, then the shared pool.
func Resolve(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	if conn := ConnFromContext(ctx); conn != nil {
		return conn
	}
	return pool
}

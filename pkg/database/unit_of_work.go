package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoUnitOfWork is returned by data access code invoked without a unit of
// work in its context.
var ErrNoUnitOfWork = errors.New("no unit of work in context")

// Querier is the part of the pgx API shared by pools, connections and
// transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UnitOfWork is the connection all statements of one catalog operation run
// on. The caller that creates it decides when it commits.
type UnitOfWork struct {
	Conn Querier
}

// NewUnitOfWork wraps an existing transaction or connection.
func NewUnitOfWork(conn Querier) *UnitOfWork {
	return &UnitOfWork{Conn: conn}
}

// InTransaction begins a transaction, runs fn with the transaction stored in
// ctx as the unit of work, and commits if fn succeeds. Any error from fn
// rolls back every statement fn issued, including DDL.
func (db *DB) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback(context.Background())
	}()

	if err := fn(SetUnitOfWork(ctx, NewUnitOfWork(tx))); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

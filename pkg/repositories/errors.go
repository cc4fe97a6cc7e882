package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ekaya-inc/ekaya-catalog/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-catalog/pkg/database"
)

// PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

// conn returns the connection of the unit of work carried by ctx.
func conn(ctx context.Context) (database.Querier, error) {
	uow, ok := database.GetUnitOfWork(ctx)
	if !ok {
		return nil, database.ErrNoUnitOfWork
	}
	return uow.Conn, nil
}

// mapWriteError converts unique violations into apperrors.ErrConflict.
func mapWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w: %s", op, apperrors.ErrConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// mapReadError converts pgx.ErrNoRows into apperrors.ErrNotFound.
func mapReadError(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return " FOR UPDATE"
	}
	return ""
}

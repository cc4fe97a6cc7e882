package ddl

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-catalog/pkg/database"
	"github.com/ekaya-inc/ekaya-catalog/pkg/logging"
	sqlguard "github.com/ekaya-inc/ekaya-catalog/pkg/sql"
)

//go:generate mockgen -destination=mocks/mock_executor.go -package=mocks . Executor

// Executor runs statements against the physical schema on the caller's
// unit of work.
type Executor interface {
	Exec(ctx context.Context, stmt Statement) error
}

type executor struct {
	logger *zap.Logger
}

// NewExecutor creates an Executor that runs each statement on the
// database.UnitOfWork carried by ctx.
func NewExecutor(logger *zap.Logger) Executor {
	return &executor{logger: logger.Named("ddl")}
}

var _ Executor = (*executor)(nil)

func (e *executor) Exec(ctx context.Context, stmt Statement) error {
	uow, ok := database.GetUnitOfWork(ctx)
	if !ok {
		return database.ErrNoUnitOfWork
	}

	normalized, err := sqlguard.ValidateStatement(stmt.SQL)
	if err != nil {
		return fmt.Errorf("refusing to execute statement: %w", err)
	}

	e.logger.Debug("Executing statement",
		zap.String("sql", logging.TruncateStatement(normalized)),
		zap.Int("args", len(stmt.Args)))

	if _, err := uow.Conn.Exec(ctx, normalized, stmt.Args...); err != nil {
		return fmt.Errorf("failed to execute %q: %w", logging.TruncateStatement(normalized), err)
	}
	return nil
}

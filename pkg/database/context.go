package database

import (
	"context"
)

type contextKey string

const (
	// UnitOfWorkKey is the context key for storing the active unit of work.
	UnitOfWorkKey contextKey = "unitOfWork"
)

// GetUnitOfWork retrieves the unit of work from context.
// Returns nil and false if not present.
func GetUnitOfWork(ctx context.Context) (*UnitOfWork, bool) {
	uow, ok := ctx.Value(UnitOfWorkKey).(*UnitOfWork)
	return uow, ok && uow != nil
}

// SetUnitOfWork stores the unit of work in context. Every repository call and
// DDL statement made with the returned context runs on uow.
func SetUnitOfWork(ctx context.Context, uow *UnitOfWork) context.Context {
	return context.WithValue(ctx, UnitOfWorkKey, uow)
}

// Package tools provides the MCP tools of the catalog.
package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-catalog/pkg/logging"
	"github.com/ekaya-inc/ekaya-catalog/pkg/retry"
	"github.com/ekaya-inc/ekaya-catalog/pkg/services"
)

// Transactor runs fn inside a transaction carried by ctx.
// *database.DB satisfies it.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CatalogToolDeps contains the dependencies of every catalog tool.
type CatalogToolDeps struct {
	DB      Transactor
	Columns services.ColumnService
	Tables  services.TableService
	Lookups services.LookupService
	Retry   *retry.Config
	Logger  *zap.Logger
}

// RegisterCatalogTools registers all catalog MCP tools.
func RegisterCatalogTools(s *server.MCPServer, deps *CatalogToolDeps) {
	registerColumnTools(s, deps)
	registerTableTools(s, deps)
	registerLookupTools(s, deps)
}

// runInTransaction runs fn in its own transaction, retrying the whole
// transaction on transient failures. Catalog errors become error results;
// anything else is returned as a Go error.
func runInTransaction[T any](
	ctx context.Context,
	deps *CatalogToolDeps,
	toolName string,
	fn func(ctx context.Context) (T, error),
) (*mcp.CallToolResult, error) {
	var result T
	err := retry.DoIfTransient(ctx, deps.Retry, func() error {
		return deps.DB.InTransaction(ctx, func(txCtx context.Context) error {
			r, err := fn(txCtx)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
	})
	if err != nil {
		if IsInputError(err) {
			deps.Logger.Debug("Tool rejected input",
				zap.String("tool", toolName),
				zap.String("error", err.Error()))
		} else {
			deps.Logger.Error("Tool failed",
				zap.String("tool", toolName),
				zap.String("error", logging.SanitizeError(err)))
		}
		if errResult := NewCatalogErrorResult(err); errResult != nil {
			return errResult, nil
		}
		return nil, err
	}
	return jsonResult(result)
}

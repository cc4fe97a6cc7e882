package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-catalog/pkg/models"
)

func registerTableTools(s *server.MCPServer, deps *CatalogToolDeps) {
	registerCreateTableTool(s, deps)
	registerListTablesTool(s, deps)
	registerDeleteTableTool(s, deps)
}

func registerCreateTableTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"create_table",
		mcp.WithDescription(
			"Register a catalog table and create its physical table with the system columns "+
				"(id, creation_date, created_by, last_update_date, last_updated_by, file_count). "+
				"Example: create_table(name='widgets') gives singular_name 'widget'",
		),
		mcp.WithString("name", mcp.Required(), mcp.Description("Plural table name, also the physical table name (e.g., 'widgets')")),
		mcp.WithString("singular_name", mcp.Description("Optional - singular instance name used for foreign key column names; derived from name when omitted")),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return NewErrorResult(CodeInvalidParameters, "parameter 'name' is required"), nil
		}
		singular := getOptionalString(req, "singular_name")

		return runInTransaction(ctx, deps, "create_table", func(ctx context.Context) (*models.Table, error) {
			return deps.Tables.Create(ctx, name, singular)
		})
	})
}

func registerListTablesTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"list_tables",
		mcp.WithDescription("List catalog tables with their column counts."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return runInTransaction(ctx, deps, "list_tables", func(ctx context.Context) ([]*models.Table, error) {
			return deps.Tables.List(ctx)
		})
	})
}

// deleteTableResponse is returned by delete_table.
type deleteTableResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func registerDeleteTableTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"delete_table",
		mcp.WithDescription("Drop a physical table and remove it from the catalog together with its columns."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Table id")),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := requireUUID(req, "id")
		if errResult != nil {
			return errResult, nil
		}
		return runInTransaction(ctx, deps, "delete_table", func(ctx context.Context) (*deleteTableResponse, error) {
			if err := deps.Tables.Delete(ctx, id); err != nil {
				return nil, err
			}
			return &deleteTableResponse{ID: id.String(), Deleted: true}, nil
		})
	})
}

package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-catalog/pkg/models"
)

func registerLookupTools(s *server.MCPServer, deps *CatalogToolDeps) {
	registerCreateLookupTool(s, deps)
	registerListLookupsTool(s, deps)
}

func registerCreateLookupTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"create_lookup",
		mcp.WithDescription(
			"Register a lookup type and create its code table (lookup_code, meaning). "+
				"Lookup columns reference it and are named <lookup_type>_lookup_code. "+
				"Example: create_lookup(lookup_type='color', description='Paint colors')",
		),
		mcp.WithString("lookup_type", mcp.Required(), mcp.Description("Lookup type, also the physical table name")),
		mcp.WithString("description", mcp.Description("Optional - what the codes mean")),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		lookupType, err := req.RequireString("lookup_type")
		if err != nil {
			return NewErrorResult(CodeInvalidParameters, "parameter 'lookup_type' is required"), nil
		}

		var description *string
		if d := trimString(getOptionalString(req, "description")); d != "" {
			description = &d
		}

		return runInTransaction(ctx, deps, "create_lookup", func(ctx context.Context) (*models.Lookup, error) {
			return deps.Lookups.Create(ctx, lookupType, description)
		})
	})
}

func registerListLookupsTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"list_lookups",
		mcp.WithDescription("List lookup types."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return runInTransaction(ctx, deps, "list_lookups", func(ctx context.Context) ([]*models.Lookup, error) {
			return deps.Lookups.List(ctx)
		})
	})
}

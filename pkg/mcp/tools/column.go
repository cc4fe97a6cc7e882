package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-catalog/pkg/models"
)

func registerColumnTools(s *server.MCPServer, deps *CatalogToolDeps) {
	registerCreateColumnTool(s, deps)
	registerListColumnsTool(s, deps)
	registerGetColumnTool(s, deps)
	registerUpdateColumnTool(s, deps)
	registerDeleteColumnTool(s, deps)
}

// columnShapeOptions describes the arguments shared by create_column and
// update_column.
func columnShapeOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("column_type",
			mcp.Description("Column kind"),
			mcp.Enum(string(models.ColumnKindBase), string(models.ColumnKindURL),
				string(models.ColumnKindForeignKey), string(models.ColumnKindLookup)),
		),
		mcp.WithString("foreign_key_table_id",
			mcp.Description("Referenced table id. Required for foreign_key columns, must be omitted or null otherwise"),
		),
		mcp.WithString("lookup_id",
			mcp.Description("Referenced lookup id. Required for lookup columns, must be omitted or null otherwise"),
		),
		mcp.WithString("name_qualifier",
			mcp.Description("Optional prefix for foreign_key and lookup column names (e.g., 'main' gives main_owner_id)"),
		),
		mcp.WithString("name",
			mcp.Description("Physical column name. Reference columns must be named <qualifier>_<singular>_id or <qualifier>_<lookup_type>_lookup_code"),
		),
		mcp.WithString("data_type",
			mcp.Description("Physical data type"),
			mcp.Enum(dataTypeNames()...),
		),
		mcp.WithNumber("length_or_precision",
			mcp.Description("varchar length (1-32767) or decimal precision (1-1000); null for other types"),
		),
		mcp.WithNumber("scale",
			mcp.Description("decimal scale (1-precision); null for other types"),
		),
		mcp.WithBoolean("is_not_null",
			mcp.Description("Whether the physical column is NOT NULL"),
		),
		mcp.WithString("initial_value",
			mcp.Description("Optional default recorded for the column"),
		),
		mcp.WithNumber("position_in_unique_key",
			mcp.Description("Optional position of the column in the table's unique key"),
		),
	}
}

func dataTypeNames() []string {
	names := make([]string, 0, len(models.DataTypes))
	for _, dt := range models.DataTypes {
		names = append(names, string(dt))
	}
	return names
}

func registerCreateColumnTool(s *server.MCPServer, deps *CatalogToolDeps) {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Add a column to a catalog table. The column is validated, stored, and added to the physical table " +
				"in one transaction; the table's column_count is incremented and the column gets the next position. " +
				"Example: create_column(table_id='...', column_type='base', name='label', data_type='varchar', length_or_precision=30)",
		),
		mcp.WithString("id", mcp.Description("Optional caller-supplied column id (UUID)")),
		mcp.WithString("table_id", mcp.Required(), mcp.Description("Owning table id")),
	}
	opts = append(opts, columnShapeOptions()...)
	opts = append(opts,
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(mcp.NewTool("create_column", opts...), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if _, errResult := requireUUID(req, "table_id"); errResult != nil {
			return errResult, nil
		}

		var draft models.ColumnDraft
		if errResult := decodeArguments(req, &draft); errResult != nil {
			return errResult, nil
		}
		draft.Name = trimString(draft.Name)

		return runInTransaction(ctx, deps, "create_column", func(ctx context.Context) (*models.Column, error) {
			return deps.Columns.Create(ctx, &draft)
		})
	})
}

func registerListColumnsTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"list_columns",
		mcp.WithDescription("List every catalog column ordered by id, or the columns of one table ordered by position."),
		mcp.WithString("table_id", mcp.Description("Optional - restrict to one table")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if getOptionalString(req, "table_id") == "" {
			return runInTransaction(ctx, deps, "list_columns", func(ctx context.Context) ([]*models.Column, error) {
				return deps.Columns.List(ctx)
			})
		}

		tableID, errResult := requireUUID(req, "table_id")
		if errResult != nil {
			return errResult, nil
		}
		return runInTransaction(ctx, deps, "list_columns", func(ctx context.Context) ([]*models.Column, error) {
			return deps.Columns.ListByTable(ctx, tableID)
		})
	})
}

func registerGetColumnTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"get_column",
		mcp.WithDescription("Get a catalog column by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Column id")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := requireUUID(req, "id")
		if errResult != nil {
			return errResult, nil
		}
		return runInTransaction(ctx, deps, "get_column", func(ctx context.Context) (*models.Column, error) {
			return deps.Columns.Get(ctx, id)
		})
	})
}

func registerUpdateColumnTool(s *server.MCPServer, deps *CatalogToolDeps) {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Partially update a catalog column. Omitted parameters keep their value; null clears nullable ones. " +
				"Only name, name_qualifier, is_not_null, initial_value and position_in_unique_key may change. " +
				"Renames and nullability changes are applied to the physical column. " +
				"Example: update_column(id='...', name='title')",
		),
		mcp.WithString("id", mcp.Required(), mcp.Description("Column id")),
		mcp.WithString("table_id", mcp.Description("Cannot be changed")),
	}
	opts = append(opts, columnShapeOptions()...)
	opts = append(opts,
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(mcp.NewTool("update_column", opts...), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := requireUUID(req, "id")
		if errResult != nil {
			return errResult, nil
		}

		var patch models.ColumnPatch
		if errResult := decodeArguments(req, &patch, "id"); errResult != nil {
			return errResult, nil
		}

		return runInTransaction(ctx, deps, "update_column", func(ctx context.Context) (*models.Column, error) {
			return deps.Columns.Update(ctx, id, &patch)
		})
	})
}

// deleteColumnResponse is returned by delete_column.
type deleteColumnResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func registerDeleteColumnTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"delete_column",
		mcp.WithDescription("Delete a catalog column and drop it from the physical table. The table's column_count is decremented; other positions are unchanged."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Column id")),
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
		return runInTransaction(ctx, deps, "delete_column", func(ctx context.Context) (*deleteColumnResponse, error) {
			if err := deps.Columns.Delete(ctx, id); err != nil {
				return nil, err
			}
			return &deleteColumnResponse{ID: id.String(), Deleted: true}, nil
		})
	})
}

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-catalog/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-catalog/pkg/models"
	"github.com/ekaya-inc/ekaya-catalog/pkg/retry"
)

type toolTestEnv struct {
	server  *server.MCPServer
	db      *fakeTransactor
	columns *fakeColumnService
	tables  *fakeTableService
	lookups *fakeLookupService
}

func newToolTestEnv(t *testing.T) *toolTestEnv {
	t.Helper()
	env := &toolTestEnv{
		server:  server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true)),
		db:      &fakeTransactor{},
		columns: &fakeColumnService{},
		tables:  &fakeTableService{},
		lookups: &fakeLookupService{},
	}
	RegisterCatalogTools(env.server, &CatalogToolDeps{
		DB:      env.db,
		Columns: env.columns,
		Tables:  env.tables,
		Lookups: env.lookups,
		Retry: &retry.Config{
			MaxRetries:   2,
			InitialDelay: time.Millisecond,
			MaxDelay:     time.Millisecond,
			Multiplier:   1,
		},
		Logger: zap.NewNop(),
	})
	return env
}

// toolCallResult is the decoded outcome of one tools/call request.
type toolCallResult struct {
	Text     string
	IsError  bool
	RPCError string
}

func (e *toolTestEnv) call(t *testing.T, name string, args map[string]any) toolCallResult {
	t.Helper()
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(e.server.HandleMessage(context.Background(), msg))
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))

	if resp.Error != nil {
		return toolCallResult{RPCError: resp.Error.Message}
	}
	require.NotEmpty(t, resp.Result.Content)
	return toolCallResult{Text: resp.Result.Content[0].Text, IsError: resp.Result.IsError}
}

func decodeErrorResponse(t *testing.T, r toolCallResult) ErrorResponse {
	t.Helper()
	require.True(t, r.IsError, "expected error result, got %s", r.Text)
	var er ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(r.Text), &er))
	return er
}

func TestRegisterCatalogTools(t *testing.T) {
	env := newToolTestEnv(t)

	result := env.server.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var response struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(resultBytes, &response))

	found := make(map[string]bool)
	for _, tool := range response.Result.Tools {
		found[tool.Name] = true
	}
	for _, expected := range []string{
		"create_column", "list_columns", "get_column", "update_column", "delete_column",
		"create_table", "list_tables", "delete_table", "create_lookup", "list_lookups",
	} {
		assert.True(t, found[expected], "tool %s should be registered", expected)
	}
}

func TestCreateColumnTool_DecodesDraft(t *testing.T) {
	env := newToolTestEnv(t)
	tableID := uuid.New()

	r := env.call(t, "create_column", map[string]any{
		"table_id":             tableID.String(),
		"column_type":          "base",
		"name":                 " label ",
		"data_type":            "varchar",
		"length_or_precision":  30,
		"foreign_key_table_id": nil,
	})

	require.False(t, r.IsError, r.Text)
	require.NotNil(t, env.columns.lastDraft)
	d := env.columns.lastDraft
	assert.Equal(t, tableID, d.TableID)
	assert.Equal(t, models.ColumnKindBase, d.Kind)
	assert.Equal(t, "label", d.Name)
	assert.Equal(t, 30, *d.LengthOrPrecision)
	assert.True(t, d.ForeignKeyTableID.IsNull())
	assert.True(t, d.LookupID.IsAbsent())
	assert.Equal(t, 1, env.db.calls)

	var created models.Column
	require.NoError(t, json.Unmarshal([]byte(r.Text), &created))
	assert.Equal(t, "label", created.Name)
}

func TestCreateColumnTool_InvalidTableID(t *testing.T) {
	env := newToolTestEnv(t)

	r := env.call(t, "create_column", map[string]any{"table_id": "not-a-uuid"})

	er := decodeErrorResponse(t, r)
	assert.Equal(t, CodeInvalidParameters, er.Code)
	assert.Nil(t, env.columns.lastDraft)
	assert.Zero(t, env.db.calls)
}

func TestCreateColumnTool_ValidationError(t *testing.T) {
	env := newToolTestEnv(t)
	env.columns.createFn = func(context.Context, *models.ColumnDraft) (*models.Column, error) {
		return nil, apperrors.NewValidationError("name", `name "id" is reserved by the system`)
	}

	r := env.call(t, "create_column", map[string]any{"table_id": uuid.NewString(), "name": "id"})

	er := decodeErrorResponse(t, r)
	assert.Equal(t, CodeValidation, er.Code)
	assert.Equal(t, `name "id" is reserved by the system`, er.Message)
	assert.Equal(t, map[string]any{"field": "name"}, er.Details)
	assert.Equal(t, 1, env.db.calls, "validation errors are not retried")
}

func TestCreateColumnTool_RetriesSerializationFailure(t *testing.T) {
	env := newToolTestEnv(t)
	attempts := 0
	env.columns.createFn = func(_ context.Context, d *models.ColumnDraft) (*models.Column, error) {
		attempts++
		if attempts == 1 {
			return nil, &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
		}
		return d.ToColumn(), nil
	}

	r := env.call(t, "create_column", map[string]any{"table_id": uuid.NewString(), "name": "label"})

	assert.False(t, r.IsError, r.Text)
	assert.Equal(t, 2, env.db.calls)
}

func TestCreateColumnTool_SQLUserError(t *testing.T) {
	env := newToolTestEnv(t)
	env.columns.createFn = func(context.Context, *models.ColumnDraft) (*models.Column, error) {
		return nil, &pgconn.PgError{Code: "42701", Message: `column "label" of relation "widgets" already exists`}
	}

	r := env.call(t, "create_column", map[string]any{"table_id": uuid.NewString(), "name": "label"})

	er := decodeErrorResponse(t, r)
	assert.Equal(t, "duplicate_column", er.Code)
}

func TestCreateColumnTool_SystemErrorIsProtocolError(t *testing.T) {
	env := newToolTestEnv(t)
	env.columns.createFn = func(context.Context, *models.ColumnDraft) (*models.Column, error) {
		return nil, errors.New("disk full")
	}

	r := env.call(t, "create_column", map[string]any{"table_id": uuid.NewString(), "name": "label"})

	assert.Contains(t, r.RPCError, "disk full")
}

func TestUpdateColumnTool_DistinguishesAbsentAndNull(t *testing.T) {
	env := newToolTestEnv(t)
	id := uuid.New()

	r := env.call(t, "update_column", map[string]any{
		"id":            id.String(),
		"name":          "title",
		"initial_value": nil,
	})

	require.False(t, r.IsError, r.Text)
	p := env.columns.lastPatch
	require.NotNil(t, p)
	assert.True(t, p.Name.HasValue())
	assert.Equal(t, "title", p.Name.Value)
	assert.True(t, p.InitialValue.IsNull())
	assert.True(t, p.IsNotNull.IsAbsent())
	assert.True(t, p.TableID.IsAbsent(), "id must not leak into the patch")
}

func TestGetColumnTool_NotFound(t *testing.T) {
	env := newToolTestEnv(t)
	env.columns.getFn = func(context.Context, uuid.UUID) (*models.Column, error) {
		return nil, apperrors.NewNotFoundError("column")
	}

	r := env.call(t, "get_column", map[string]any{"id": uuid.NewString()})

	er := decodeErrorResponse(t, r)
	assert.Equal(t, CodeNotFound, er.Code)
	assert.Equal(t, "column not found", er.Message)
}

func TestDeleteColumnTool(t *testing.T) {
	env := newToolTestEnv(t)
	id := uuid.New()

	r := env.call(t, "delete_column", map[string]any{"id": id.String()})

	require.False(t, r.IsError, r.Text)
	assert.JSONEq(t, `{"id":"`+id.String()+`","deleted":true}`, r.Text)
}

func TestListColumnsTool_ByTable(t *testing.T) {
	env := newToolTestEnv(t)
	tableID := uuid.New()

	r := env.call(t, "list_columns", map[string]any{"table_id": tableID.String()})

	require.False(t, r.IsError, r.Text)
	assert.Equal(t, tableID, env.columns.listedTableID)
}

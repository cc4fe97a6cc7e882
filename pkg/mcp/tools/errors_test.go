package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-catalog/pkg/apperrors"
)

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestNewCatalogErrorResult(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantMsg  string
	}{
		{
			name:     "validation",
			err:      fmt.Errorf("wrapped: %w", apperrors.NewValidationError("scale", "scale cannot be null")),
			wantCode: CodeValidation,
			wantMsg:  "scale cannot be null",
		},
		{
			name:     "typed not found",
			err:      apperrors.NewNotFoundError("lookup"),
			wantCode: CodeNotFound,
			wantMsg:  "lookup not found",
		},
		{
			name:     "conflict",
			err:      fmt.Errorf("column 1 already exists: %w", apperrors.ErrConflict),
			wantCode: CodeConflict,
			wantMsg:  "column 1 already exists: conflict",
		},
		{
			name:     "undefined table",
			err:      &pgconn.PgError{Code: "42P01", Message: `relation "widgets" does not exist`},
			wantCode: "undefined_table",
			wantMsg:  `relation "widgets" does not exist`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewCatalogErrorResult(tt.err)
			require.NotNil(t, result)
			assert.True(t, result.IsError)

			var er ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &er))
			assert.True(t, er.Error)
			assert.Equal(t, tt.wantCode, er.Code)
			assert.Equal(t, tt.wantMsg, er.Message)
		})
	}
}

func TestNewCatalogErrorResult_SystemErrors(t *testing.T) {
	assert.Nil(t, NewCatalogErrorResult(nil))
	assert.Nil(t, NewCatalogErrorResult(errors.New("connection reset by peer")))
	assert.Nil(t, NewCatalogErrorResult(&pgconn.PgError{Code: "53300", Message: "too many connections"}))
}

func TestIsInputError(t *testing.T) {
	assert.True(t, IsInputError(apperrors.NewValidationError("name", "name is required")))
	assert.True(t, IsInputError(apperrors.NewNotFoundError("column")))
	assert.True(t, IsInputError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsInputError(errors.New("connection refused")))
	assert.False(t, IsInputError(nil))
}

func TestMapSQLStateToCode(t *testing.T) {
	assert.Equal(t, "duplicate_column", mapSQLStateToCode("42701"))
	assert.Equal(t, "data_exception", mapSQLStateToCode("22008"))
	assert.Equal(t, "constraint_violation", mapSQLStateToCode("23514"))
	assert.Equal(t, "sql_error", mapSQLStateToCode("42601"))
}

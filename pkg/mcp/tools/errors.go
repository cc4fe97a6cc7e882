package tools

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-catalog/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// Actionable errors are returned as tool results rather than protocol errors
// so the client sees the details.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error codes returned in ErrorResponse.Code.
const (
	CodeValidation        = "validation_error"
	CodeNotFound          = "not_found"
	CodeConflict          = "conflict"
	CodeInvalidParameters = "invalid_parameters"
)

// NewErrorResult creates a tool result containing a structured error.
// Use this for recoverable errors the caller can fix (invalid parameters,
// resource not found). System failures still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// NewCatalogErrorResult converts an error from the catalog services into a
// tool result. Returns nil for system failures, which the caller should
// return as a Go error instead.
//
//	column, err := deps.Columns.Create(ctx, draft)
//	if err != nil {
//	    if result := NewCatalogErrorResult(err); result != nil {
//	        return result, nil
//	    }
//	    return nil, err
//	}
func NewCatalogErrorResult(err error) *mcp.CallToolResult {
	if err == nil {
		return nil
	}

	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		return NewErrorResultWithDetails(CodeValidation, verr.Reason, map[string]string{"field": verr.Field})
	}

	var nf *apperrors.NotFoundError
	if errors.As(err, &nf) {
		return NewErrorResult(CodeNotFound, nf.Error())
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return NewErrorResult(CodeNotFound, err.Error())
	}
	if errors.Is(err, apperrors.ErrConflict) {
		return NewErrorResult(CodeConflict, err.Error())
	}

	return NewSQLErrorResult(err)
}

// IsSQLUserError returns true if the error is a SQL user error (bad
// identifier, constraint violation, missing table) rather than a server
// error (connection failure, internal error).
//
// PostgreSQL SQLSTATE class codes that indicate user errors:
//   - 22xxx: Data Exception (invalid input, division by zero)
//   - 23xxx: Integrity Constraint Violation (unique, FK, check)
//   - 42xxx: Syntax Error or Access Rule Violation
func IsSQLUserError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || len(pgErr.Code) < 2 {
		return false
	}
	switch pgErr.Code[:2] {
	case "22", "23", "42":
		return true
	}
	return false
}

// mapSQLStateToCode maps a SQLSTATE code to a human-readable error code.
func mapSQLStateToCode(sqlState string) string {
	switch sqlState {
	case "42701": // duplicate_column
		return "duplicate_column"
	case "42703": // undefined_column
		return "undefined_column"
	case "42P01": // undefined_table
		return "undefined_table"
	case "42P07": // duplicate_table
		return "duplicate_table"
	case "42804": // datatype_mismatch
		return "datatype_mismatch"
	case "23505": // unique_violation
		return "unique_violation"
	case "23503": // foreign_key_violation
		return "foreign_key_violation"
	case "23502": // not_null_violation
		return "not_null_violation"
	case "22P02": // invalid_text_representation
		return "invalid_input"
	}

	switch sqlState[:2] {
	case "22":
		return "data_exception"
	case "23":
		return "constraint_violation"
	}
	return "sql_error"
}

// NewSQLErrorResult creates an error result from a SQL error if it's a user error.
// Returns nil if the error is not a SQL user error.
func NewSQLErrorResult(err error) *mcp.CallToolResult {
	if !IsSQLUserError(err) {
		return nil
	}
	var pgErr *pgconn.PgError
	errors.As(err, &pgErr)
	return NewErrorResult(mapSQLStateToCode(pgErr.Code), pgErr.Message)
}

// IsInputError returns true if the error was caused by the caller's input
// rather than a server failure. These are logged at Debug, not Error.
func IsInputError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrConflict) || IsSQLUserError(err) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "invalid input")
}

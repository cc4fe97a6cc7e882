package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// trimString removes leading and trailing whitespace from a string.
func trimString(s string) string {
	return strings.TrimSpace(s)
}

// getOptionalString extracts an optional string argument from the request.
func getOptionalString(req mcp.CallToolRequest, key string) string {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return ""
	}
	val, ok := args[key].(string)
	if !ok {
		return ""
	}
	return val
}

// requireUUID reads a required UUID argument. The returned result is non-nil
// when the argument is missing or malformed.
func requireUUID(req mcp.CallToolRequest, key string) (uuid.UUID, *mcp.CallToolResult) {
	raw, err := req.RequireString(key)
	if err != nil {
		return uuid.Nil, NewErrorResult(CodeInvalidParameters, fmt.Sprintf("parameter '%s' is required", key))
	}
	id, err := uuid.Parse(trimString(raw))
	if err != nil {
		return uuid.Nil, NewErrorResult(CodeInvalidParameters, fmt.Sprintf("parameter '%s' must be a UUID", key))
	}
	return id, nil
}

// decodeArguments decodes the request arguments into dst through JSON, so
// jsonutil.Field values keep the difference between an omitted key and an
// explicit null.
func decodeArguments(req mcp.CallToolRequest, dst any, skip ...string) *mcp.CallToolResult {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		args = map[string]any{}
	}
	if len(skip) > 0 {
		filtered := make(map[string]any, len(args))
		for k, v := range args {
			filtered[k] = v
		}
		for _, k := range skip {
			delete(filtered, k)
		}
		args = filtered
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return NewErrorResult(CodeInvalidParameters, fmt.Sprintf("invalid arguments: %v", err))
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return NewErrorResult(CodeInvalidParameters, fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

// jsonResult renders v as the text content of a successful tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func respondWith(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
}

func serveToolCall(t *testing.T, h http.Handler, reqBody string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(reqBody))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const createColumnCall = `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"create_column",` +
	`"arguments":{"table_id":"6f1c2d3e-0000-4000-8000-000000000001","name":"label","data_type":"varchar"}}}`

func TestMCPRequestLogger(t *testing.T) {
	t.Run("logs successful tool call", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		wrapped := MCPRequestLogger(zap.New(core))(
			respondWith(`{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"{}"}]}}`))

		serveToolCall(t, wrapped, createColumnCall)

		require.Equal(t, 2, logs.Len(), "should log request and response")
		requestLog := logs.All()[0]
		assert.Equal(t, "MCP request", requestLog.Message)
		assert.Equal(t, "tools/call", requestLog.ContextMap()["method"])
		assert.Equal(t, "create_column", requestLog.ContextMap()["tool"])
		assert.Equal(t, "6f1c2d3e-0000-4000-8000-000000000001", requestLog.ContextMap()["table_id"])
		assert.Equal(t, "label", requestLog.ContextMap()["name"])
		assert.NotContains(t, requestLog.ContextMap(), "data_type")

		responseLog := logs.All()[1]
		assert.Equal(t, "MCP response success", responseLog.Message)
		assert.Equal(t, "create_column", responseLog.ContextMap()["tool"])
	})

	t.Run("logs tool level error", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		wrapped := MCPRequestLogger(zap.New(core))(respondWith(
			`{"jsonrpc":"2.0","id":1,"result":{"isError":true,"content":[{"type":"text","text":"{\"error\":true,\"code\":\"validation_error\"}"}]}}`))

		serveToolCall(t, wrapped, createColumnCall)

		require.Equal(t, 2, logs.Len())
		responseLog := logs.All()[1]
		assert.Equal(t, "MCP tool error", responseLog.Message)
		assert.Contains(t, responseLog.ContextMap()["error_message"], "validation_error")
	})

	t.Run("logs JSON-RPC error", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		wrapped := MCPRequestLogger(zap.New(core))(respondWith(
			`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid params"}}`))

		serveToolCall(t, wrapped, createColumnCall)

		require.Equal(t, 2, logs.Len())
		responseLog := logs.All()[1]
		assert.Equal(t, "MCP response error", responseLog.Message)
		assert.Equal(t, int64(-32602), responseLog.ContextMap()["error_code"])
	})

	t.Run("body is still readable downstream", func(t *testing.T) {
		var captured []byte
		reader := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured, _ = io.ReadAll(r.Body)
			_, _ = w.Write([]byte(`{}`))
		})

		serveToolCall(t, MCPRequestLogger(zap.NewNop())(reader), createColumnCall)
		assert.Equal(t, createColumnCall, string(captured))
	})

	t.Run("nil logger passes through", func(t *testing.T) {
		inner := respondWith(`{}`)
		rec := serveToolCall(t, MCPRequestLogger(nil)(inner), createColumnCall)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", maxLoggedValue+10)
	assert.Len(t, truncate(long), maxLoggedValue+3)
	assert.Equal(t, "short", truncate("short"))
}

func TestRequestLogger_RecordsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(http.StatusTeapot), logs.All()[0].ContextMap()["status"])
	assert.Equal(t, "/health", logs.All()[0].ContextMap()["path"])
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

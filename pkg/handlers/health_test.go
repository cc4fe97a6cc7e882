package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func serve(t *testing.T, h *HealthHandler, path string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthHandler_Health(t *testing.T) {
	rec := serve(t, NewHealthHandler("test-version", "test", nil, zap.NewNop()), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHealthHandler_Ready(t *testing.T) {
	t.Run("database reachable", func(t *testing.T) {
		rec := serve(t, NewHealthHandler("v", "test", stubPinger{}, zap.NewNop()), "/ready")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ReadyResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "ok", resp.Database)
	})

	t.Run("database unreachable", func(t *testing.T) {
		rec := serve(t, NewHealthHandler("v", "test", stubPinger{err: errors.New("connection refused")}, zap.NewNop()), "/ready")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp ReadyResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "unavailable", resp.Status)
		assert.Equal(t, "unreachable", resp.Database)
	})

	t.Run("no database configured", func(t *testing.T) {
		rec := serve(t, NewHealthHandler("v", "test", nil, zap.NewNop()), "/ready")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHealthHandler_Ping(t *testing.T) {
	rec := serve(t, NewHealthHandler("1.2.3", "staging", nil, zap.NewNop()), "/ping")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp PingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "ekaya-catalog", resp.Service)
	assert.Equal(t, "staging", resp.Environment)
	assert.NotEmpty(t, resp.GoVersion)
}

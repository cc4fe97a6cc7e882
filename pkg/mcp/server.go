package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-catalog/pkg/config"
	"github.com/ekaya-inc/ekaya-catalog/pkg/handlers"
	"github.com/ekaya-inc/ekaya-catalog/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-catalog/pkg/middleware"
)

// shutdownTimeout bounds how long in-flight HTTP tool calls may finish.
const shutdownTimeout = 10 * time.Second

// Server wraps the mcp-go MCPServer with the catalog tools registered.
type Server struct {
	mcp    *server.MCPServer
	health *handlers.HealthHandler
	logger *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithHealth serves the health endpoints next to /mcp on the HTTP transport.
func WithHealth(h *handlers.HealthHandler) Option {
	return func(s *Server) {
		s.health = h
	}
}

// NewServer creates a new MCP server instance exposing the catalog tools.
func NewServer(name, version string, deps *tools.CatalogToolDeps, logger *zap.Logger, opts ...Option) *Server {
	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
	)

	tools.RegisterCatalogTools(mcpServer, deps)

	s := &Server{
		mcp:    mcpServer,
		logger: logger.Named("mcp"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MCP returns the underlying MCPServer.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// NewStreamableHTTPServer creates an HTTP transport server wrapping this MCP server.
// The HTTP mux handles routing to /mcp, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// RegisterTool is a convenience wrapper for registering a tool.
func (s *Server) RegisterTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
}

// Handler returns the HTTP handler serving the MCP endpoint at /mcp and,
// when configured, the health endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", middleware.MCPRequestLogger(s.logger)(s.NewStreamableHTTPServer()))
	if s.health != nil {
		s.health.RegisterRoutes(mux)
	}
	return middleware.Chain(mux, middleware.RequestLogger(s.logger))
}

// Run serves the configured transport until ctx is cancelled.
func (s *Server) Run(ctx context.Context, cfg config.MCPConfig) error {
	switch cfg.Transport {
	case config.TransportStdio:
		s.logger.Info("Serving MCP over stdio")
		return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
	case config.TransportHTTP:
		return s.runHTTP(ctx, cfg)
	default:
		return fmt.Errorf("unsupported MCP transport %q", cfg.Transport)
	}
}

func (s *Server) runHTTP(ctx context.Context, cfg config.MCPConfig) error {
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Serving MCP over HTTP",
			zap.String("addr", cfg.Addr()),
			zap.String("url", cfg.BaseURL()+"/mcp"))
		var err error
		if cfg.UseTLS() {
			err = httpServer.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("MCP HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down MCP HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down MCP HTTP server: %w", err)
	}
	return nil
}

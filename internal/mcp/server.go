// Package mcp exposes a typedb snapshot to MCP clients over stdio through the
// typedb_search, typedb_symbol and typedb_graph tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/typedb/internal/config"
)

// Watcher keeps the snapshot current while the server runs.
type Watcher interface {
	Start(ctx context.Context) error
}

// ServerOption configures an MCPServer.
type ServerOption func(*MCPServer)

// WithWatcher runs w for the lifetime of Serve.
func WithWatcher(w Watcher) ServerOption {
	return func(s *MCPServer) {
		s.watcher = w
	}
}

// WithServerLogger sets the structured logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *MCPServer) {
		s.logger = logger
	}
}

// MCPServer manages the MCP server lifecycle.
type MCPServer struct {
	snapshot *Snapshot
	watcher  Watcher
	logger   *slog.Logger
	mcp      *server.MCPServer
}

// NewMCPServer creates an MCP server serving snap with all typedb tools registered.
func NewMCPServer(cfg *config.Config, snap *Snapshot, opts ...ServerOption) (*MCPServer, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is required")
	}
	if cfg == nil {
		cfg = config.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.Server.Name,
		cfg.Server.Version,
		server.WithToolCapabilities(true),
	)

	AddTypeDBSearchTool(mcpServer, snap, cfg.Search)
	AddTypeDBSymbolTool(mcpServer, snap)
	AddTypeDBGraphTool(mcpServer, snap)

	s := &MCPServer{
		snapshot: snap,
		mcp:      mcpServer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *MCPServer) Serve(ctx context.Context) error {
	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 2)

	if s.watcher != nil {
		go func() {
			if err := s.watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("watcher error: %w", err)
			}
		}()
	}

	// Start MCP server in goroutine
	go func() {
		s.logger.Info("starting MCP server on stdio",
			slog.String("build_id", s.snapshot.Database().BuildID()))
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigCh:
		s.logger.Info("received shutdown signal, stopping gracefully")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the snapshot.
func (s *MCPServer) Close() error {
	return s.snapshot.Close()
}

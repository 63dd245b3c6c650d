// Package server exposes the sampling engine, the serializers and the
// attribute cache as Model Context Protocol tools.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/abhinvv1/WebDriverAgent/internal/gridsample"
	"github.com/abhinvv1/WebDriverAgent/internal/rntree"
)

// Transports accepted by Serve.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// shutdownTimeout bounds the HTTP transport's graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Config holds MCP server configuration.
type Config struct {
	Name      string
	Version   string
	Sampling  gridsample.Config
	RNURL     string        // In-app RN tree endpoint; the backend's inspector is used when empty
	ResultTTL time.Duration // How long complete grid results are reused (0 disables)
}

// Server wraps the MCP server with the engine and its collaborators.
type Server struct {
	engine    *gridsample.Engine
	fetcher   *rntree.Fetcher
	inspector rntree.Inspector
	results   *ResultCache
	rnURL     string
	logger    *slog.Logger

	mu       sync.RWMutex
	sampling gridsample.Config

	// runMu serializes sampling runs against the single application.
	runMu sync.Mutex

	mcp *mcpserver.MCPServer
}

// New creates a server with all tools registered. inspector may be nil.
func New(cfg Config, engine *gridsample.Engine, fetcher *rntree.Fetcher, inspector rntree.Inspector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = "gridtree"
	}
	s := &Server{
		engine:    engine,
		fetcher:   fetcher,
		inspector: inspector,
		results:   NewResultCache(cfg.ResultTTL),
		rnURL:     cfg.RNURL,
		logger:    logger,
		sampling:  cfg.Sampling.WithDefaults(),
	}
	s.mcp = mcpserver.NewMCPServer(
		cfg.Name,
		cfg.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	s.registerTools()
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcpserver.MCPServer { return s.mcp }

// Sampling returns the sampling defaults used when a tool call omits them.
func (s *Server) Sampling() gridsample.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sampling
}

// SetSampling replaces the sampling defaults and drops cached results.
func (s *Server) SetSampling(cfg gridsample.Config) error {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.sampling = cfg
	s.mu.Unlock()
	s.results.InvalidateAll()
	return nil
}

// Serve runs the configured transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	switch transport {
	case TransportStdio:
		return mcpserver.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
	case TransportStreamableHTTP:
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.Start(addr) }()
		s.logger.Info("mcp server listening", "transport", transport, "addr", addr)

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		}
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", transport)
	}
}

// Package mcp provides the MCP tool server.
// It runs over stdio and needs no external services; history, when
// enabled, lives in a local SQLite file.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/lab-report-server/internal/config"
	"github.com/lab-report-server/internal/domain"
	"github.com/lab-report-server/internal/history"
	"github.com/lab-report-server/internal/logging"
	"github.com/lab-report-server/internal/service"
)

const (
	serverName    = "lab-report-mcp-server"
	serverVersion = "v1.0.0"
)

// LiteServer exposes the lab analyzer as MCP tools.
type LiteServer struct {
	config    *config.LiteConfig
	mcpServer *mcp.Server
	analyzer  domain.LabAnalyzer
	history   history.Store
	ownsStore bool
	logger    *logrus.Logger
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		s.logger = logger
		return nil
	}
}

// WithHistoryStore sets a custom history store. The caller keeps
// ownership and must close it.
func WithHistoryStore(store history.Store) LiteServerOption {
	return func(s *LiteServer) error {
		s.history = store
		return nil
	}
}

// NewLiteServer creates a new MCP server instance.
func NewLiteServer(cfg *config.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	if cfg == nil {
		cfg = config.DefaultLiteConfig()
	}

	server := &LiteServer{
		config: cfg,
		logger: logging.NewLogger(cfg.Logging()),
	}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.history == nil && cfg.HistoryEnabled {
		if err := cfg.EnsureDataDir(); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := history.NewSQLiteStore(cfg.HistoryDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create history store: %w", err)
		}
		server.history = store
		server.ownsStore = true
	}

	var analyzerOpts []service.AnalyzerOption
	if server.history != nil {
		recorder := history.NewRecorder(server.history, domain.BreakerConfig{}, server.logger)
		analyzerOpts = append(analyzerOpts, service.WithRecorder(recorder))
	}
	server.analyzer = service.NewAnalyzerService(server.logger, analyzerOpts...)

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)
	server.registerTools()

	server.logger.WithField("history", server.history != nil).Info("Lite server initialized successfully")
	return server, nil
}

// registerTools registers the lab tools with the MCP SDK.
func (s *LiteServer) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        toolAnalyzeLabs,
		Description: "Analyze a panel of blood test results and return Arabic and English narrative reports with the structured verdict",
	}, s.handleAnalyzeLabs)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        toolListAnalyses,
		Description: "List stored analyses, newest first. Available only when history is enabled",
	}, s.handleListAnalyses)

	s.logger.WithField("tool_count", 2).Debug("Registered MCP tools")
}

// Start runs the server over stdio until ctx is cancelled or the client
// disconnects.
func (s *LiteServer) Start(ctx context.Context) error {
	s.logger.Info("Starting lab report MCP server (stdio)")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Close cleans up server resources.
func (s *LiteServer) Close() error {
	if s.history != nil && s.ownsStore {
		if err := s.history.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close history store")
			return err
		}
	}
	return nil
}

// Package mcp provides an MCP (Model Context Protocol) server for stairwalk.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/stairwalk/internal/config"
	"github.com/nvandessel/stairwalk/internal/logging"
	"github.com/nvandessel/stairwalk/internal/ratelimit"
	"github.com/nvandessel/stairwalk/internal/store"
)

// Server wraps the MCP SDK server and exposes the simulation as tools.
type Server struct {
	server       *sdk.Server
	store        store.RunStore
	settings     *config.StairwalkConfig
	logger       *slog.Logger
	events       *logging.EventLogger
	toolLimiters ratelimit.ToolLimiters
	root         string
}

// Config holds server configuration.
type Config struct {
	Name     string // Server name (e.g., "stairwalk")
	Version  string // Server version
	Root     string // Project root directory
	Settings *config.StairwalkConfig
	Logger   *slog.Logger
	Events   *logging.EventLogger // optional per-trial trace
	Store    store.RunStore       // optional; defaults to the SQLite history under Root
}

// NewServer creates a new MCP server with stairwalk tools.
func NewServer(cfg *Config) (*Server, error) {
	runStore := cfg.Store
	if runStore == nil {
		s, err := store.OpenLocal(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to open run store: %w", err)
		}
		runStore = s
	}

	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		server:       mcpServer,
		store:        runStore,
		settings:     settings,
		logger:       logger,
		events:       cfg.Events,
		toolLimiters: ratelimit.NewToolLimiters(),
		root:         cfg.Root,
	}

	s.registerTools()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	s.store.Close()

	return err
}

// Close closes the server and releases resources.
func (s *Server) Close() error {
	return s.store.Close()
}

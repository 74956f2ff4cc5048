// Package mcp exposes the daemon's surface controls as MCP tools. The tools
// talk to a running daemon over its IPC socket.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/surfaced/internal/config"
	"github.com/1broseidon/surfaced/internal/ipc"
	"github.com/1broseidon/surfaced/internal/surface"
)

const (
	ServerVersion = "0.1.0"

	defaultConsumer = 1
	defaultMaxDim   = 512
)

// Backend is the daemon API the tools drive. *ipc.Client implements it.
type Backend interface {
	GetStatus() (*ipc.StatusData, error)
	List() ([]surface.Info, error)
	Sessions() ([]ipc.SessionInfo, error)
	Close(id uint64) error
	Raise(ids ...uint64) error
	Activate(id uint64) error
	SetFrameDropper(enabled bool) error
	Snapshot(id, consumer uint64, maxDim int) (*ipc.SnapshotData, error)
	SetInitialSize(pid, width, height int) error
	RemoveInitialSize(pid int) error
	Resize(id uint64, width, height int) error
	Move(id uint64, x, y int) error
	SetKeymap(id uint64, keymap string) error
	SetOrientation(id uint64, angle int) error
	SendInput(ev ipc.InputPayload) error
}

var _ Backend = (*ipc.Client)(nil)

// Server is the MCP server for surfaced.
type Server struct {
	mcpServer *mcpsdk.Server
	backend   Backend
	logger    *slog.Logger
}

// NewServer creates an MCP server that forwards tool calls to backend.
func NewServer(cfg *config.Config, backend Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	name := config.DefaultMCPServerName
	if cfg != nil && cfg.MCP.ServerName != "" {
		name = cfg.MCP.ServerName
	}

	s := &Server{
		backend: backend,
		logger:  logger.With("component", "mcp"),
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    name,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server starting on stdio")
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Package server exposes the routemodel tools over MCP, either on stdio for a
// single local client or over HTTP+SSE.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/NERVsystems/routemodel/pkg/tools"
	"github.com/NERVsystems/routemodel/pkg/version"
)

// ServerName is the MCP implementation name reported to clients
const ServerName = "routemodel"

// Server is an MCP server with the itinerary tools registered.
type Server struct {
	mcp    *mcpserver.MCPServer
	tools  []string
	logger *slog.Logger
}

// NewServer registers every tool in registry on a fresh MCP server.
func NewServer(registry *tools.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mcp := mcpserver.NewMCPServer(
		ServerName,
		version.BuildVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	registry.RegisterTools(mcp)

	s := &Server{
		mcp:    mcp,
		tools:  registry.Names(),
		logger: logger.With("component", "mcp_server"),
	}
	s.logger.Info("MCP server ready", "version", version.BuildVersion, "tools", s.tools)
	return s
}

// Serve reads JSON-RPC messages from in and writes replies to out until in
// is exhausted or ctx is cancelled. Both count as a clean stop.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := mcpserver.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		s.logger.Info("MCP stdio session ended")
		return nil
	}
	return err
}

// RunStdio serves the process's stdin and stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// MCP returns the underlying server for the HTTP transport
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

// Tools lists the registered tool names in registration order
func (s *Server) Tools() []string {
	return s.tools
}

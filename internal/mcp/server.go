package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/numberdesk/numberdesk/internal/service"
)

// MCPServer wraps the mcp-go server with the numberdesk tools and resources.
// It lets AI agents list, register and delete users and phone numbers
// through the same validation the HTTP API applies.
type MCPServer struct {
	dir    *service.Directory
	logger *slog.Logger
	server *server.MCPServer
}

// NewMCPServer creates an MCPServer with every tool and resource registered.
// The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(dir *service.Directory, version string, logger *slog.Logger) *MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = "dev"
	}
	s := &MCPServer{
		dir:    dir,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"numberdesk",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
// Clients that launch numberdesk as a subprocess use this mode.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP serves MCP in Streamable HTTP mode on addr (e.g. ":3001").
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation(destructive bool) mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:    boolPtr(false),
		DestructiveHint: boolPtr(destructive),
	}
}

func boolPtr(b bool) *bool {
	return &b
}

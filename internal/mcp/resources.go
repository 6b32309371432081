package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const statsURI = "numberdesk://stats"

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			statsURI,
			"Directory Statistics",
			mcp.WithResourceDescription("Row counts for users, phone numbers and admin accounts."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleStatsResource,
	)
}

func (s *MCPServer) handleStatsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	counts, err := s.dir.Stats(ctx)
	if err != nil {
		return nil, err
	}

	b, err := json.MarshalIndent(counts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stats: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      statsURI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

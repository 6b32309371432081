package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	ndmcp "github.com/numberdesk/numberdesk/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes the user and phone
number directory as tools for AI agents. Supports stdio (default) and HTTP
transports.

In stdio mode, the MCP server communicates over stdin/stdout using JSON-RPC,
suitable for clients that launch numberdesk as a subprocess.`,
		Example: `  numberdesk mcp                             # stdio mode
  numberdesk mcp --transport http --port 3001  # Streamable HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")

	return cmd
}

func runMCP(transport string, port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := stderrLogger(cfg)

	dir, _, cleanup, err := openDirectory(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	mcpSrv := ndmcp.NewMCPServer(dir, versionString(), logger)

	switch transport {
	case "stdio":
		return mcpSrv.ServeStdio()
	case "http":
		return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", port))
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	inframcp "github.com/jcttech/specstack/internal/infrastructure/mcp"
)

var (
	mcpTransport string
	mcpAddr      string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Specstack MCP server",
	Long: `The MCP server exposes cascade, sync, draft, and analysis operations
as tools for MCP clients. Stdio serves a single client over the
process pipes; http and ws listen on --addr.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	root, err := getProjectRoot()
	if err != nil {
		return err
	}

	server, err := inframcp.NewServer(root)
	if err != nil {
		return MapError(err)
	}

	switch strings.ToLower(mcpTransport) {
	case "stdio", "":
		return server.ServeStdio(cmd.Context())
	case "http":
		return server.ServeHTTP(cmd.Context(), mcpAddr)
	case "ws", "websocket":
		return server.ServeWebSocket(cmd.Context(), mcpAddr)
	default:
		return NewCLIError(fmt.Sprintf("unsupported transport %q", mcpTransport),
			"Use one of: stdio, http, ws", nil)
	}
}

func init() {
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "stdio", "Transport to use (stdio, http, ws)")
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", ":8080", "Address for http/ws transports")
	RootCmd.AddCommand(mcpCmd)
}

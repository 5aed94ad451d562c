package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/spaces/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search
spaces and ask questions about them.

By default the server speaks JSON-RPC over stdio. Use --port to serve the
streamable HTTP transport instead, e.g. for MCP Inspector.

Tools: search, ask, history. Resources: spaces://spaces and
spaces://spaces/{space}/files.

Examples:
  spaces mcp serve
  spaces mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "spaces": {
        "command": "/path/to/spaces",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	if err := loadServices(cmd); err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Retrieval:     retrievalService,
		Chat:          chatService,
		Spaces:        spaceService,
		Conversations: conversationService,
	})
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.Printf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	// stdout carries the protocol, so nothing else may be printed.
	return server.Run(ctx)
}

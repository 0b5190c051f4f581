package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyrag/internal/adapters/driving/mcp"
	"github.com/custodia-labs/policyrag/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with any MCP-compatible AI assistant.

Tools: retrieve_context, extract_text, chunk_policy_text, chunk_text, assemble_context.
Resources: policyrag://prompts/base_instructions.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default)
  policyrag mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  policyrag mcp serve --port 8080`,
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

	retriever, err := getRetriever(cmd.Context())
	if err != nil {
		return fmt.Errorf("retriever not available: %w", err)
	}
	ports := &mcp.Ports{
		Retriever: retriever,
		Extractor: getExtractor(),
	}
	if chat, err := getChat(cmd.Context(), false); err == nil {
		ports.Chat = chat
	} else {
		logger.Warn("assemble_context disabled: %v", err)
	}
	if prompts, err := getPrompts(); err == nil {
		ports.Prompts = prompts
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}

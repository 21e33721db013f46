package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/pipebuilder/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts pipebuilder as an MCP Server.
This allows AI agents to validate configurations, compose graphs and list hints as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		sessions, err := a.sessions()
		if err != nil {
			return err
		}

		srv := mcp.NewServer(a.catalog, mcp.WithSessions(sessions), mcp.WithLogger(a.logger))

		switch a.cfg.MCP.Transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			a.logger.Info("Starting pipebuilder MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, a.cfg.MCP.Port); err != nil {
				return fmt.Errorf("MCP server failed: %w", err)
			}
			a.logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", a.cfg.MCP.Transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
	_ = v.BindPFlag("mcp.transport", mcpCmd.Flags().Lookup("transport"))
	_ = v.BindPFlag("mcp.port", mcpCmd.Flags().Lookup("port"))
}

package main

import (
	"context"

	"github.com/aretw0/toolguide/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the guides and clinic tools as MCP tools, and the guide diagrams
as resources.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, cfg, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		if err := cli.ServeMCP(ctx, rt, cfg.MCP.Transport, cfg.MCP.Port); err != nil {
			return err
		}
		rt.Logger.Info("MCP Server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	_ = v.BindPFlag("mcp.transport", mcpCmd.Flags().Lookup("transport"))
	_ = v.BindPFlag("mcp.port", mcpCmd.Flags().Lookup("port"))
}

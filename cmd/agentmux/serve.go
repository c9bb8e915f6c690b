package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/agentmux/internal/mcptools"
	"github.com/dusk-indust/agentmux/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the orchestrator over HTTP",
		Long: `Serve the orchestrator over HTTP.

Routes:
  POST /mcp         JSON tool envelope (tools/list, tools/call)
  /mcp/stream       MCP streamable HTTP transport
  GET  /healthz     liveness
  GET  /metrics     Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := server.New(a.chatService(), a.logger)
			return server.Run(cmd.Context(), addr, a.cfg.Server.ReadHeaderTimeout, srv.Handler(), a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run as an MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			return mcptools.RunStdio(cmd.Context(), mcptools.NewMCPServer(a.chatService()))
		},
	}
}

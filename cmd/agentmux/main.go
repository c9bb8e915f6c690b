package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "agentmux",
		Short: "Multi-agent question orchestrator",
		Long: `agentmux answers questions that span several domains.

It asks a completion backend to split the question into sub-questions,
routes each one to the matching specialist responder in parallel, and merges
the answers into a single reply with a trace of who answered what.

It runs as an MCP server (stdio or HTTP), an HTTP service, or a one-shot CLI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./agentmux.yaml, then ~/.config/agentmux/agentmux.yaml)")

	root.AddCommand(
		newServeCmd(opts),
		newMCPCmd(opts),
		newAskCmd(opts),
		newAgentsCmd(opts),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "agentmux version %s\n", version)
		},
	}
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/agentmux/internal/registry"
)

func newAgentsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the registered responders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			reg, err := registry.Load(cfg.Registry.File)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
			for _, r := range reg.All() {
				fallback := ""
				if r.ID == cfg.Registry.FallbackResponder {
					fallback = " (fallback)"
				}
				fmt.Fprintf(tw, "%s%s\t%s\t%s\n", r.ID, fallback, r.Name, r.Description)
			}
			return tw.Flush()
		},
	}
}

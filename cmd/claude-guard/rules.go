package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/victorarias/claude-guard/internal/config"
)

func (a *app) rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List hook names and the rules they run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v (using defaults)\n", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "HOOK\tPHASE\tSTOPS ON BLOCK\tRULES")
			for _, p := range a.dispatcher(cfg, zerolog.Nop()).Pipelines() {
				stops := "no"
				if p.ShortCircuits() {
					stops = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.Phase, stops, strings.Join(p.RuleNames(), ","))
			}
			return w.Flush()
		},
	}
}

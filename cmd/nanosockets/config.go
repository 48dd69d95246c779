package main

import (
	"github.com/spf13/cobra"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			return a.cfg.Write(cmd.OutOrStdout(), format)
		},
	}
	cmd.Flags().String("format", "yaml", "output format: yaml or json")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenListTeam/nanosockets/address"
)

func newResolveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve HOST",
		Short: "Resolve a hostname to its first address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ip, err := a.cfg.HostResolver().ResolveHostname(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", ip, ip.Family())
			return err
		},
	}
}

func newReverseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reverse IP",
		Short: "Look up the hostname of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ip, err := address.Parse(args[0])
			if err != nil {
				return err
			}
			name, err := a.cfg.HostResolver().ReverseHostname(cmd.Context(), ip)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), name)
			return err
		},
	}
}

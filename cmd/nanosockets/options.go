package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/OpenListTeam/nanosockets/udp"
)

func newOptionsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Print the buffer sizes of a freshly created socket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			host := a.newHost()
			if err := host.Initialize(); err != nil {
				return err
			}
			defer host.Deinitialize()

			handle, err := host.Create(a.cfg.Sockets.SendBufferSize, a.cfg.Sockets.ReceiveBufferSize)
			if err != nil {
				return err
			}
			defer host.Destroy(handle)

			snd, err := host.GetOption(handle, udp.LevelSocket, udp.OptionSendBuffer)
			if err != nil {
				return err
			}
			rcv, err := host.GetOption(handle, udp.LevelSocket, udp.OptionReceiveBuffer)
			if err != nil {
				return err
			}
			dontFrag := "supported"
			if err := host.SetDontFragment(handle); err != nil {
				dontFrag = err.Error()
			}
			local, err := host.LocalAddress(handle)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "family\t%s\n", local.Family())
			fmt.Fprintf(w, "SO_SNDBUF\t%d\n", snd)
			fmt.Fprintf(w, "SO_RCVBUF\t%d\n", rcv)
			fmt.Fprintf(w, "dont-fragment\t%s\n", dontFrag)
			return w.Flush()
		},
	}
}

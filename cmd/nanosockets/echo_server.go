package main

import (
	"context"
	"net/netip"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/cobra"

	"github.com/OpenListTeam/nanosockets/address"
	"github.com/OpenListTeam/nanosockets/common/bytespool"
	"github.com/OpenListTeam/nanosockets/status"
	"github.com/OpenListTeam/nanosockets/udp"
)

type peerStats struct {
	datagrams int
	bytes     int
	lastSeen  time.Time
}

type serverOptions struct {
	listen     address.Address
	maxPeers   int
	pollMillis int64
	// listening, when set, receives the bound address once the socket is ready.
	listening func(address.Address)
}

func newEchoServerCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "echo-server",
		Short: "Echo every datagram back to its sender",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listen, _ := cmd.Flags().GetString("listen")
			ap, err := netip.ParseAddrPort(listen)
			if err != nil {
				return err
			}
			opts := serverOptions{listen: address.FromAddrPort(ap)}
			opts.maxPeers, _ = cmd.Flags().GetInt("max-peers")
			opts.pollMillis, _ = cmd.Flags().GetInt64("poll")
			return a.echoServer(cmd.Context(), opts)
		},
	}
	cmd.Flags().String("listen", "[::]:5001", "address to bind")
	cmd.Flags().Int("max-peers", 1024, "number of peers to keep statistics for")
	cmd.Flags().Int64("poll", 100, "poll timeout in milliseconds")
	return cmd
}

func (a *app) echoServer(ctx context.Context, opts serverOptions) error {
	local := opts.listen

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

	if err := host.Bind(handle, local); err != nil {
		return err
	}
	if err := host.SetDontFragment(handle); err != nil {
		a.log.Warnf("don't-fragment: %v", err)
	}
	if err := host.SetNonBlocking(handle, true); err != nil {
		return err
	}
	if bound, err := host.LocalAddress(handle); err == nil {
		local = bound
	}

	peers, err := lru.NewWithEvict(opts.maxPeers, func(peer address.Address, st *peerStats) {
		a.log.WithFields(map[string]any{
			"peer":      peer.String(),
			"datagrams": st.datagrams,
		}).Debug("peer evicted")
	})
	if err != nil {
		return err
	}

	a.log.Infof("echo server listening on %s", local)
	if opts.listening != nil {
		opts.listening(local)
	}

	buf := bytespool.Alloc(bytespool.MaxPoolSize)
	defer bytespool.Free(buf)

	for ctx.Err() == nil {
		st, err := host.Poll(handle, opts.pollMillis)
		if err != nil {
			return err
		}
		if st == udp.PollTimeout {
			continue
		}

		// drain everything that is queued; a pending socket error is
		// consumed by the first receive
		for {
			res, err := host.ReceiveFrom(handle, buf)
			if status.IsWouldBlock(err) {
				break
			}
			if err != nil {
				a.log.Warn(err)
				break
			}

			stats, ok := peers.Get(res.From)
			if !ok {
				stats = &peerStats{}
				peers.Add(res.From, stats)
				a.log.Infof("new peer %s", res.From)
			}
			stats.datagrams++
			stats.bytes += res.N
			stats.lastSeen = time.Now()

			if _, err := host.Send(handle, res.From, buf[:res.N]); err != nil && !status.IsWouldBlock(err) {
				a.log.Warn(err)
			}
		}
	}

	for _, peer := range peers.Keys() {
		if st, ok := peers.Peek(peer); ok {
			a.log.Infof("%s: %d datagrams, %d bytes", peer, st.datagrams, st.bytes)
		}
	}
	return nil
}

package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/OpenListTeam/nanosockets/address"
	"github.com/OpenListTeam/nanosockets/status"
	"github.com/OpenListTeam/nanosockets/udp"
)

type clientOptions struct {
	server   address.Address
	clients  int
	messages int
	rate     float64
	size     int
	timeout  time.Duration
}

type clientStats struct {
	sent   atomic.Int64
	echoed atomic.Int64
	lost   atomic.Int64
}

// clientSummary is the outcome of one echo-client run.
type clientSummary struct {
	Sent, Echoed, Lost int64
	Elapsed            time.Duration
}

func newEchoClientCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "echo-client",
		Short: "Send datagrams to an echo server and count the echoes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, _ := cmd.Flags().GetString("server")
			ap, err := netip.ParseAddrPort(server)
			if err != nil {
				return err
			}
			opts := clientOptions{server: address.FromAddrPort(ap)}
			opts.clients, _ = cmd.Flags().GetInt("clients")
			opts.messages, _ = cmd.Flags().GetInt("messages")
			opts.rate, _ = cmd.Flags().GetFloat64("rate")
			opts.size, _ = cmd.Flags().GetInt("size")
			opts.timeout, _ = cmd.Flags().GetDuration("timeout")
			if opts.size < 8 {
				return fmt.Errorf("size must be at least 8, got %d", opts.size)
			}
			sum, err := a.echoClient(cmd.Context(), opts)
			a.log.Infof("sent %d, echoed %d, lost %d in %s",
				sum.Sent, sum.Echoed, sum.Lost, sum.Elapsed.Round(time.Millisecond))
			return err
		},
	}
	cmd.Flags().String("server", "127.0.0.1:5001", "echo server address")
	cmd.Flags().Int("clients", 1, "number of concurrent clients")
	cmd.Flags().Int("messages", 10, "messages per client")
	cmd.Flags().Float64("rate", 0, "messages per second per client, 0 for unlimited")
	cmd.Flags().Int("size", 64, "datagram size in bytes")
	cmd.Flags().Duration("timeout", time.Second, "how long to wait for each echo")
	return cmd
}

func (a *app) echoClient(ctx context.Context, opts clientOptions) (clientSummary, error) {
	host := a.newHost()
	if err := host.Initialize(); err != nil {
		return clientSummary{}, err
	}
	defer host.Deinitialize()

	var stats clientStats
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.clients; i++ {
		g.Go(func() error {
			return a.runClient(ctx, host, uint32(i), opts, &stats)
		})
	}
	err := g.Wait()

	return clientSummary{
		Sent:    stats.sent.Load(),
		Echoed:  stats.echoed.Load(),
		Lost:    stats.lost.Load(),
		Elapsed: time.Since(start),
	}, err
}

func (a *app) runClient(ctx context.Context, host *udp.Host, id uint32, opts clientOptions, stats *clientStats) error {
	handle, err := host.Create(a.cfg.Sockets.SendBufferSize, a.cfg.Sockets.ReceiveBufferSize)
	if err != nil {
		return err
	}
	defer host.Destroy(handle)

	if err := host.Connect(handle, opts.server); err != nil {
		return err
	}
	if err := host.SetNonBlocking(handle, true); err != nil {
		return err
	}

	limit := rate.Inf
	if opts.rate > 0 {
		limit = rate.Limit(opts.rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	payload := make([]byte, opts.size)
	reply := make([]byte, opts.size+1)
	for seq := 0; seq < opts.messages; seq++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}

		// 前 8 字节: 客户端编号 + 序号
		binary.BigEndian.PutUint32(payload[0:], id)
		binary.BigEndian.PutUint32(payload[4:], uint32(seq))
		stats.sent.Add(1)
		if _, err := host.Send(handle, address.Address{}, payload); err != nil {
			if status.CodeOf(err) != status.SendFailed {
				return err
			}
			// 上一个报文的 ICMP 错误可能在这里才报告
			a.log.Debug(err)
			stats.lost.Add(1)
			continue
		}

		ok, err := a.awaitEcho(ctx, host, handle, payload, reply, opts.timeout)
		if err != nil {
			return err
		}
		if ok {
			stats.echoed.Add(1)
		} else {
			stats.lost.Add(1)
		}
	}
	return nil
}

// awaitEcho polls until payload comes back or timeout passes. Stale echoes
// of earlier messages are skipped.
func (a *app) awaitEcho(ctx context.Context, host *udp.Host, handle udp.Handle, payload, reply []byte, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for ctx.Err() == nil {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		st, err := host.Poll(handle, remaining.Milliseconds())
		if err != nil {
			return false, err
		}
		if st == udp.PollTimeout {
			return false, nil
		}

		res, err := host.ReceiveFrom(handle, reply)
		switch {
		case status.IsWouldBlock(err):
			continue
		case status.CodeOf(err) == status.ReceiveFailed:
			// ICMP 不可达等情况，视为丢失
			a.log.Debug(err)
			return false, nil
		case err != nil:
			return false, err
		}
		if bytes.Equal(reply[:res.N], payload) {
			return true, nil
		}
	}
	return false, nil
}

package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenListTeam/nanosockets/address"
	"github.com/OpenListTeam/nanosockets/config"
	"github.com/OpenListTeam/nanosockets/logger"
)

func newTestApp(t *testing.T) *app {
	cfg, err := config.Read(strings.NewReader("log:\n  output: none\n"), "yaml")
	require.NoError(t, err)
	return &app{cfg: cfg, log: logger.Nop()}
}

// freeAddress returns a loopback address nothing listens on.
func freeAddress(t *testing.T, a *app) address.Address {
	host := a.newHost()
	require.NoError(t, host.Initialize())
	defer host.Deinitialize()

	handle, err := host.Create(0, 0)
	require.NoError(t, err)
	require.NoError(t, host.Bind(handle, address.MustNew("127.0.0.1", 0)))
	local, err := host.LocalAddress(handle)
	require.NoError(t, err)
	require.NoError(t, host.Destroy(handle))
	return local
}

func TestEchoLoopback(t *testing.T) {
	a := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan address.Address, 1)
	served := make(chan error, 1)
	go func() {
		served <- a.echoServer(ctx, serverOptions{
			listen:     address.MustNew("127.0.0.1", 0),
			maxPeers:   8,
			pollMillis: 20,
			listening:  func(local address.Address) { ready <- local },
		})
	}()

	var server address.Address
	select {
	case server = <-ready:
	case err := <-served:
		t.Fatalf("echo server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("echo server did not start")
	}

	sum, err := a.echoClient(ctx, clientOptions{
		server:   server,
		clients:  2,
		messages: 5,
		size:     32,
		timeout:  time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), sum.Sent)
	assert.Equal(t, int64(10), sum.Echoed)
	assert.Zero(t, sum.Lost)

	// server loop notices the cancellation within one poll interval
	cancel()
	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("echo server did not stop")
	}
}

func TestEchoClientCountsLost(t *testing.T) {
	a := newTestApp(t)

	sum, err := a.echoClient(context.Background(), clientOptions{
		server:   freeAddress(t, a),
		clients:  1,
		messages: 3,
		size:     16,
		timeout:  100 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.Sent)
	assert.Zero(t, sum.Echoed)
	assert.Equal(t, int64(3), sum.Lost)
}

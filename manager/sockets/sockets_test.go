//go:build unix || windows

package sockets

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenListTeam/nanosockets/address"
)

func openBound(t *testing.T) (*Socket, address.Address) {
	s, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Bind(address.MustNew("127.0.0.1", 0)))
	local, err := s.LocalAddr()
	require.NoError(t, err)
	require.NotZero(t, local.Port)
	return s, local
}

func TestSocketLoopback(t *testing.T) {
	require.NoError(t, Startup())
	defer Cleanup()

	s, local := openBound(t)
	assert.Equal(t, address.IPv4{127, 0, 0, 1}, local.IP)

	// 1. send to self
	n, err := s.SendTo([]byte("hello"), local)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	ev, err := s.Poll(1000)
	require.NoError(t, err)
	require.Equal(t, PollReadable, ev)

	// 2. receive and check the source
	buf := make([]byte, 64)
	n, from, truncated, err := s.RecvFrom(buf)
	require.NoError(t, err)
	assert.False(t, truncated)
	assert.Equal(t, "hello", string(buf[:n]))
	assert.Equal(t, local, from)
}

func TestSocketTruncation(t *testing.T) {
	require.NoError(t, Startup())
	defer Cleanup()

	s, local := openBound(t)
	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i)
	}
	_, err := s.SendTo(payload, local)
	require.NoError(t, err)

	buf := make([]byte, 10)
	n, _, truncated, err := s.RecvFrom(buf)
	require.NoError(t, err)
	assert.True(t, truncated)
	assert.Equal(t, 10, n)
	assert.Equal(t, payload[:10], buf)
}

func TestSocketNonblockAndPoll(t *testing.T) {
	require.NoError(t, Startup())
	defer Cleanup()

	s, _ := openBound(t)
	require.NoError(t, s.SetNonblock(true))

	ev, err := s.Poll(0)
	require.NoError(t, err)
	assert.Equal(t, PollNone, ev)

	_, _, _, err = s.RecvFrom(make([]byte, 16))
	require.Error(t, err)
	assert.Equal(t, KindWouldBlock, Classify(err))

	start := time.Now()
	ev, err = s.Poll(50)
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.Equal(t, PollNone, ev)
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestSocketConnectedSend(t *testing.T) {
	require.NoError(t, Startup())
	defer Cleanup()

	server, serverAddr := openBound(t)
	client, clientAddr := openBound(t)
	require.NoError(t, client.Connect(serverAddr))

	_, err := client.SendTo([]byte("ping"), address.Address{})
	require.NoError(t, err)

	_, err = server.Poll(1000)
	require.NoError(t, err)
	buf := make([]byte, 16)
	n, from, _, err := server.RecvFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))
	assert.Equal(t, clientAddr, from)
}

func TestSocketOptions(t *testing.T) {
	require.NoError(t, Startup())
	defer Cleanup()

	s, err := Open()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SetBuffers(0, 65536))
	v, err := s.GetOption(LevelSocket, OptionReceiveBuffer)
	require.NoError(t, err)
	// Linux 会把设置值翻倍
	assert.GreaterOrEqual(t, v, 65536)

	err = s.SetDontFragment()
	if err != nil {
		assert.ErrorIs(t, err, ErrUnsupported)
	}
}

func TestSocketAddressFamily(t *testing.T) {
	s := &Socket{family: address.FamilyIPv4}
	_, err := s.toSockaddr(address.MustNew("::1", 1))
	assert.ErrorIs(t, err, ErrAddress)
	assert.Equal(t, KindInvalidAddress, Classify(err))

	_, err = s.toSockaddr(address.Address{})
	assert.ErrorIs(t, err, ErrAddress)

	_, err = s.toSockaddr(address.MustNew("10.0.0.1", 1))
	assert.NoError(t, err)

	dual := &Socket{family: address.FamilyIPv6}
	assert.True(t, dual.DualStack())
	_, err = dual.toSockaddr(address.MustNew("10.0.0.1", 1))
	assert.NoError(t, err)
}

func TestSocketClosed(t *testing.T) {
	require.NoError(t, Startup())
	defer Cleanup()

	s, err := Open()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Poll(0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Bind(address.MustNew("127.0.0.1", 0)), ErrClosed)
	_, err = s.SendTo(nil, address.MustNew("127.0.0.1", 9))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindOther, Classify(nil))
	assert.Equal(t, KindOther, Classify(fmt.Errorf("plain")))
	assert.Equal(t, KindInvalidAddress, Classify(fmt.Errorf("bind: %w", ErrAddress)))
	assert.Equal(t, "timeout", PollNone.String())
	assert.Equal(t, "readable", PollReadable.String())
}

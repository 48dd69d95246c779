package address

import (
	"context"
	"net"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/foxcpp/go-mockdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenListTeam/nanosockets/status"
)

func newMockDNS(t *testing.T) *mockdns.Server {
	srv, err := mockdns.NewServer(map[string]mockdns.Zone{
		"example.org.": {
			A: []string{"192.0.2.10"},
		},
		"v6.example.org.": {
			AAAA: []string{"2001:db8::10"},
		},
		"10.2.0.192.in-addr.arpa.": {
			PTR: []string{"example.org."},
		},
		"11.2.0.192.in-addr.arpa.": {
			// 每个 label 不超过 63 字节，整体超过 MaxHostNameLength
			PTR: []string{strings.Repeat("a", 40) + "." + strings.Repeat("b", 40) + ".example.org."},
		},
	}, false)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

func TestDNSResolver(t *testing.T) {
	srv := newMockDNS(t)
	ctx := context.Background()
	r := NewDNSResolver(srv.LocalAddr().String(), time.Second)

	// 1. A record
	ip, err := r.ResolveHostname(ctx, "example.org")
	require.NoError(t, err)
	assert.Equal(t, IPv4{192, 0, 2, 10}, ip)

	// 2. 只有 AAAA 记录时回退
	ip, err = r.ResolveHostname(ctx, "v6.example.org")
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::10", ip.String())

	// 3. PTR
	name, err := r.ReverseHostname(ctx, IPv4{192, 0, 2, 10})
	require.NoError(t, err)
	assert.Equal(t, "example.org", name)

	// 4. failures
	_, err = r.ResolveHostname(ctx, "missing.example.org")
	assert.ErrorIs(t, err, status.ErrResolutionFailed)

	_, err = r.ReverseHostname(ctx, IPv4{192, 0, 2, 99})
	assert.ErrorIs(t, err, status.ErrResolutionFailed)

	_, err = r.ReverseHostname(ctx, IPv4{192, 0, 2, 11})
	assert.ErrorIs(t, err, status.ErrBufferTooSmall)

	// 5. literals never hit the server
	ip, err = r.ResolveHostname(ctx, "::1")
	require.NoError(t, err)
	assert.Equal(t, "::1", ip.String())
}

func TestSystemResolverPatched(t *testing.T) {
	srv := newMockDNS(t)
	nr := &net.Resolver{}
	srv.PatchNet(nr)
	defer mockdns.UnpatchNet(nr)

	ctx := context.Background()
	r := &SystemResolver{Resolver: nr}

	a := MustNew("0.0.0.0", 8080)
	require.NoError(t, a.SetHostName(ctx, r, "example.org"))
	assert.Equal(t, MustNew("192.0.2.10", 8080), a)

	name, err := a.GetHostName(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, "example.org", name)

	before := a
	err = a.SetHostName(ctx, r, "missing.example.org")
	assert.ErrorIs(t, err, status.ErrResolutionFailed)
	assert.Equal(t, before, a)

	_, err = Address{}.GetHostName(ctx, r)
	assert.ErrorIs(t, err, status.ErrInvalidAddress)
}

func TestLocalhostRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ip, err := ResolveHostname(ctx, "localhost")
	if err != nil {
		t.Skipf("localhost does not resolve here: %v", err)
	}
	addr := netip.AddrFrom16(ip.As16()).Unmap()
	require.True(t, addr.IsLoopback(), "localhost resolved to %s", ip)

	name, err := ReverseHostname(ctx, ip)
	if err != nil {
		t.Skipf("no reverse mapping for %s: %v", ip, err)
	}
	require.NotEmpty(t, name)
	assert.Less(t, len(name), MaxHostNameLength)

	again, err := ResolveHostname(ctx, name)
	require.NoError(t, err)
	againAddr := netip.AddrFrom16(again.As16()).Unmap()
	assert.True(t, againAddr.IsLoopback(), "%s resolved to %s", name, again)
}

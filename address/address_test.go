package address

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenListTeam/nanosockets/status"
)

func TestParseIPv4RoundTrip(t *testing.T) {
	for _, text := range []string{"127.0.0.1", "0.0.0.0", "255.255.255.255", "192.168.1.20"} {
		ip, err := Parse(text)
		require.NoError(t, err, text)
		require.IsType(t, IPv4{}, ip)
		assert.Equal(t, FamilyIPv4, ip.Family())

		b := ip.As16()
		assert.Equal(t, []byte{0xff, 0xff}, b[10:12])
		assert.Equal(t, make([]byte, 10), b[:10])

		out, err := Format(ip, MaxTextLength)
		require.NoError(t, err)
		assert.Equal(t, text, out)
	}
}

func TestParseIPv6RoundTrip(t *testing.T) {
	cases := map[string]string{
		"::1":                          "::1",
		"::":                           "::",
		"2001:db8::1":                  "2001:db8::1",
		"2001:0DB8:0000:0000:0:0:0:42": "2001:db8::42",
		"fe80::1:2:3:4":                "fe80::1:2:3:4",
	}
	for in, want := range cases {
		ip, err := Parse(in)
		require.NoError(t, err, in)
		require.IsType(t, IPv6{}, ip)

		b := ip.As16()
		assert.False(t, isMapped(b), in)

		out, err := Format(ip, MaxTextLength)
		require.NoError(t, err)
		assert.Equal(t, want, out)
	}
}

func TestParseMappedYieldsIPv4(t *testing.T) {
	ip, err := Parse("::ffff:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, IPv4{1, 2, 3, 4}, ip)
	assert.Equal(t, "1.2.3.4", ip.String())
}

func TestParseRejects(t *testing.T) {
	for _, text := range []string{"", "localhost", "1.2.3", "1.2.3.256", "::1::", "fe80::1%eth0", " 1.2.3.4"} {
		_, err := Parse(text)
		require.Error(t, err, text)
		assert.ErrorIs(t, err, status.ErrInvalidAddressFormat, text)
	}
}

func TestFrom16(t *testing.T) {
	var b [16]byte
	b[10], b[11] = 0xff, 0xff
	b[12], b[13], b[14], b[15] = 10, 0, 0, 7
	assert.Equal(t, IPv4{10, 0, 0, 7}, From16(b))

	// 标记位不完整时仍是 IPv6
	b[10] = 0
	ip := From16(b)
	assert.Equal(t, FamilyIPv6, ip.Family())
	assert.Equal(t, b, ip.As16())
}

func TestFormatBufferTooSmall(t *testing.T) {
	ip := IPv4{192, 168, 100, 200}
	_, err := Format(ip, 10)
	assert.ErrorIs(t, err, status.ErrBufferTooSmall)

	out, err := Format(ip, len("192.168.100.200"))
	require.NoError(t, err)
	assert.Equal(t, "192.168.100.200", out)

	_, err = Format(nil, MaxTextLength)
	assert.ErrorIs(t, err, status.ErrInvalidAddress)
}

func TestAddressEquality(t *testing.T) {
	a := MustNew("127.0.0.1", 5000)
	assert.True(t, Equal(a, a))
	assert.True(t, a.Equal(MustNew("::ffff:127.0.0.1", 5000)))
	assert.False(t, a.Equal(MustNew("127.0.0.1", 5001)))
	assert.False(t, a.Equal(MustNew("127.0.0.2", 5000)))
	assert.False(t, a.Equal(MustNew("::1", 5000)))

	assert.Equal(t, a.Hash(), MustNew("127.0.0.1", 5000).Hash())
	assert.NotEqual(t, a.Hash(), MustNew("127.0.0.1", 5001).Hash())

	// 可作为 map 的键
	seen := map[Address]int{a: 1}
	assert.Equal(t, 1, seen[MustNew("127.0.0.1", 5000)])
}

func TestAddressSetGetIP(t *testing.T) {
	a := Address{Port: 80}
	require.NoError(t, a.SetIP("10.1.2.3"))
	assert.Equal(t, uint16(80), a.Port)

	text, err := a.GetIP(MaxTextLength)
	require.NoError(t, err)
	assert.Equal(t, "10.1.2.3", text)

	require.Error(t, a.SetIP("nope"))
	assert.Equal(t, IPv4{10, 1, 2, 3}, a.IP, "failed SetIP must not modify the address")
}

func TestAddressConversions(t *testing.T) {
	a := MustNew("2001:db8::5", 443)
	assert.Equal(t, "[2001:db8::5]:443", a.String())
	assert.Equal(t, FamilyIPv6, a.Family())

	ap := a.AddrPort()
	assert.Equal(t, netip.MustParseAddrPort("[2001:db8::5]:443"), ap)
	assert.Equal(t, a, FromAddrPort(ap))

	v4 := MustNew("127.0.0.1", 9)
	assert.True(t, v4.AddrPort().Addr().Is4())
	assert.Equal(t, v4, FromAddrPort(netip.MustParseAddrPort("[::ffff:127.0.0.1]:9")))

	var zero Address
	assert.False(t, zero.IsValid())
	assert.Equal(t, "invalid", zero.String())
	assert.Equal(t, [16]byte{}, zero.As16())
	assert.Equal(t, Family(0), zero.Family())
	assert.False(t, zero.AddrPort().IsValid())
}

// Package address implements the unified IPv4/IPv6 socket address used by
// every nanosockets operation.
//
// An IP is exactly one of two variants: IPv4, whose 16-byte form is the
// IPv4-mapped IPv6 embedding (::ffff:a.b.c.d), or IPv6, which never carries
// that marker. Sockets always see the 16-byte form, so a dual-stack socket
// handles both variants uniformly; the variant only matters where behavior
// differs by family, such as text formatting.
package address

import (
	"encoding/binary"
	"net"
	"net/netip"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/OpenListTeam/nanosockets/status"
)

// MaxTextLength is the longest textual form Format can produce
// (INET6_ADDRSTRLEN).
const MaxTextLength = 46

// Family tells which variant an IP is.
type Family uint8

const (
	FamilyIPv4 Family = iota + 1
	FamilyIPv6
)

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return "unknown"
	}
}

// IP is implemented only by IPv4 and IPv6.
type IP interface {
	Family() Family
	// As16 returns the 16-byte representation handed to the platform.
	As16() [16]byte
	String() string

	sealed()
}

// IPv4 is a 4-byte IPv4 address.
type IPv4 [4]byte

func (IPv4) Family() Family { return FamilyIPv4 }

func (ip IPv4) As16() [16]byte {
	var b [16]byte
	b[10], b[11] = 0xff, 0xff
	copy(b[12:], ip[:])
	return b
}

func (ip IPv4) String() string { return netip.AddrFrom4(ip).String() }

func (IPv4) sealed() {}

// IPv6 is a 16-byte IPv6 address that is not IPv4-mapped. The zero value is
// the unspecified address (::). Build one with From16 or Parse.
type IPv6 struct {
	b [16]byte
}

func (IPv6) Family() Family { return FamilyIPv6 }

func (ip IPv6) As16() [16]byte { return ip.b }

func (ip IPv6) String() string { return netip.AddrFrom16(ip.b).String() }

func (IPv6) sealed() {}

// From16 picks the variant by the mapped marker: bytes 0-9 zero and bytes
// 10-11 0xFFFF make an IPv4, anything else an IPv6.
func From16(b [16]byte) IP {
	if isMapped(b) {
		var v4 IPv4
		copy(v4[:], b[12:])
		return v4
	}
	return IPv6{b: b}
}

func isMapped(b [16]byte) bool {
	for _, c := range b[:10] {
		if c != 0 {
			return false
		}
	}
	return binary.BigEndian.Uint16(b[10:12]) == 0xffff
}

// FromNetIP converts a standard library IP. It returns nil when ip has
// neither a 4- nor a 16-byte form.
func FromNetIP(ip net.IP) IP {
	if v4 := ip.To4(); v4 != nil {
		var out IPv4
		copy(out[:], v4)
		return out
	}
	if v6 := ip.To16(); v6 != nil {
		var b [16]byte
		copy(b[:], v6)
		return From16(b)
	}
	return nil
}

// Parse reads the textual form of an IP. IPv4 dotted-quad is tried first,
// then IPv6. An IPv6 text that encodes a mapped address yields the IPv4
// variant.
func Parse(text string) (IP, error) {
	addr, err := netip.ParseAddr(text)
	if err != nil {
		return nil, status.New(status.InvalidAddressFormat, "parse "+strconv.Quote(text), err)
	}
	if addr.Is4() {
		return IPv4(addr.As4()), nil
	}
	if addr.Zone() != "" {
		return nil, status.New(status.InvalidAddressFormat, "parse "+strconv.Quote(text), nil)
	}
	return From16(addr.As16()), nil
}

// Format writes ip in its textual form, failing with BufferTooSmall when
// the text is longer than capacity.
func Format(ip IP, capacity int) (string, error) {
	if ip == nil {
		return "", status.New(status.InvalidAddress, "format", nil)
	}
	text := ip.String()
	if len(text) > capacity {
		return "", status.New(status.BufferTooSmall, "format", nil)
	}
	return text, nil
}

// Address is an IP plus a port in host byte order. The zero Address has no
// IP and is not valid for socket operations; Send treats it as "the
// connected peer".
type Address struct {
	IP   IP
	Port uint16
}

// New parses text and attaches port.
func New(text string, port uint16) (Address, error) {
	ip, err := Parse(text)
	if err != nil {
		return Address{}, err
	}
	return Address{IP: ip, Port: port}, nil
}

// MustNew is like New but panics on error. Intended for literals.
func MustNew(text string, port uint16) Address {
	a, err := New(text, port)
	if err != nil {
		panic(err)
	}
	return a
}

// FromAddrPort converts a netip.AddrPort, dropping any zone.
func FromAddrPort(ap netip.AddrPort) Address {
	if !ap.IsValid() {
		return Address{}
	}
	return Address{IP: From16(ap.Addr().As16()), Port: ap.Port()}
}

// AddrPort converts a to a netip.AddrPort; IPv4 addresses come out as
// 4-byte addresses.
func (a Address) AddrPort() netip.AddrPort {
	switch ip := a.IP.(type) {
	case IPv4:
		return netip.AddrPortFrom(netip.AddrFrom4(ip), a.Port)
	case IPv6:
		return netip.AddrPortFrom(netip.AddrFrom16(ip.b), a.Port)
	}
	return netip.AddrPort{}
}

func (a Address) IsValid() bool { return a.IP != nil }

// Family returns the variant of a's IP, or 0 for the zero Address.
func (a Address) Family() Family {
	if a.IP == nil {
		return 0
	}
	return a.IP.Family()
}

// As16 returns the 16-byte representation, all zero for the zero Address.
func (a Address) As16() [16]byte {
	if a.IP == nil {
		return [16]byte{}
	}
	return a.IP.As16()
}

// Equal reports byte-wise equality: same variant, same bytes, same port.
func (a Address) Equal(b Address) bool {
	return a == b
}

// Equal reports whether a and b are the same address.
func Equal(a, b Address) bool {
	return a.Equal(b)
}

// Hash returns a hash of the 16-byte form and the port, stable across
// processes.
func (a Address) Hash() uint64 {
	var buf [18]byte
	b := a.As16()
	copy(buf[:16], b[:])
	binary.BigEndian.PutUint16(buf[16:], a.Port)
	return xxhash.Sum64(buf[:])
}

// SetIP replaces the IP, keeping the port. On failure a is unchanged.
func (a *Address) SetIP(text string) error {
	ip, err := Parse(text)
	if err != nil {
		return err
	}
	a.IP = ip
	return nil
}

// GetIP formats the IP into at most capacity bytes.
func (a Address) GetIP(capacity int) (string, error) {
	return Format(a.IP, capacity)
}

// String returns host:port, with IPv6 hosts bracketed.
func (a Address) String() string {
	if a.IP == nil {
		return "invalid"
	}
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(int(a.Port)))
}

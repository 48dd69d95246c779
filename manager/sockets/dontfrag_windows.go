//go:build windows

package sockets

import (
	"golang.org/x/sys/windows"

	"github.com/OpenListTeam/nanosockets/address"
)

const (
	ipDontFragment = 14 // IP_DONTFRAGMENT
	ipv6DontFrag   = 14 // IPV6_DONTFRAG
)

func setDontFragment(s *Socket) error {
	if s.family == address.FamilyIPv4 {
		return windows.SetsockoptInt(s.fd, windows.IPPROTO_IP, ipDontFragment, 1)
	}
	if err := windows.SetsockoptInt(s.fd, windows.IPPROTO_IPV6, ipv6DontFrag, 1); err != nil {
		return err
	}
	_ = windows.SetsockoptInt(s.fd, windows.IPPROTO_IP, ipDontFragment, 1)
	return nil
}

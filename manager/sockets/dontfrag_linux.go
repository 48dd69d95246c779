//go:build linux

package sockets

import (
	"golang.org/x/sys/unix"

	"github.com/OpenListTeam/nanosockets/address"
)

func setDontFragment(s *Socket) error {
	if s.family == address.FamilyIPv4 {
		return unix.SetsockoptInt(s.fd, unix.IPPROTO_IP, unix.IP_MTU_DISCOVER, unix.IP_PMTUDISC_DO)
	}
	if err := unix.SetsockoptInt(s.fd, unix.IPPROTO_IPV6, unix.IPV6_MTU_DISCOVER, unix.IPV6_PMTUDISC_DO); err != nil {
		return err
	}
	// mapped IPv4 traffic follows the IPv4 option
	_ = unix.SetsockoptInt(s.fd, unix.IPPROTO_IP, unix.IP_MTU_DISCOVER, unix.IP_PMTUDISC_DO)
	return nil
}

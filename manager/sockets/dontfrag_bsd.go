//go:build darwin || freebsd

package sockets

import (
	"golang.org/x/sys/unix"

	"github.com/OpenListTeam/nanosockets/address"
)

func setDontFragment(s *Socket) error {
	if s.family == address.FamilyIPv4 {
		return unix.SetsockoptInt(s.fd, unix.IPPROTO_IP, unix.IP_DONTFRAG, 1)
	}
	if err := unix.SetsockoptInt(s.fd, unix.IPPROTO_IPV6, unix.IPV6_DONTFRAG, 1); err != nil {
		return err
	}
	// 双栈套接字上 IPv4 选项可能被拒绝，忽略即可
	_ = unix.SetsockoptInt(s.fd, unix.IPPROTO_IP, unix.IP_DONTFRAG, 1)
	return nil
}

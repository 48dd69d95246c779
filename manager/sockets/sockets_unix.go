//go:build unix

package sockets

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/OpenListTeam/nanosockets/address"
)

type fdType = int

// Option levels and names commonly passed to SetOption.
const (
	LevelSocket         = unix.SOL_SOCKET
	OptionSendBuffer    = unix.SO_SNDBUF
	OptionReceiveBuffer = unix.SO_RCVBUF

	LevelIP           = unix.IPPROTO_IP
	LevelIPv6         = unix.IPPROTO_IPV6
	OptionTTL         = unix.IP_TTL
	OptionUnicastHops = unix.IPV6_UNICAST_HOPS
)

func startup() error { return nil }
func cleanup() error { return nil }

func closeFd(fd int) error {
	return unix.Close(fd)
}

// Open creates a dual-stack UDP socket, falling back to IPv4 only when the
// host has no IPv6 support.
func Open() (*Socket, error) {
	fd, err := unix.Socket(unix.AF_INET6, unix.SOCK_DGRAM, unix.IPPROTO_UDP)
	if err == nil {
		// 关闭 V6ONLY 以同时收发 IPv4-mapped 流量
		if err = unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0); err != nil {
			unix.Close(fd)
			return nil, err
		}
		unix.CloseOnExec(fd)
		return &Socket{fd: fd, family: address.FamilyIPv6}, nil
	}
	if !errors.Is(err, unix.EAFNOSUPPORT) && !errors.Is(err, unix.EPROTONOSUPPORT) {
		return nil, err
	}

	fd, err = unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, unix.IPPROTO_UDP)
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(fd)
	return &Socket{fd: fd, family: address.FamilyIPv4}, nil
}

func (s *Socket) toSockaddr(a address.Address) (unix.Sockaddr, error) {
	if !a.IsValid() {
		return nil, ErrAddress
	}
	if s.family == address.FamilyIPv6 {
		return &unix.SockaddrInet6{Port: int(a.Port), Addr: a.As16()}, nil
	}
	v4, ok := a.IP.(address.IPv4)
	if !ok {
		return nil, ErrAddress
	}
	return &unix.SockaddrInet4{Port: int(a.Port), Addr: v4}, nil
}

func fromSockaddr(sa unix.Sockaddr) address.Address {
	switch sa := sa.(type) {
	case *unix.SockaddrInet6:
		return address.Address{IP: address.From16(sa.Addr), Port: uint16(sa.Port)}
	case *unix.SockaddrInet4:
		return address.Address{IP: address.IPv4(sa.Addr), Port: uint16(sa.Port)}
	}
	return address.Address{}
}

func (s *Socket) Bind(a address.Address) error {
	if s.closed {
		return ErrClosed
	}
	sa, err := s.toSockaddr(a)
	if err != nil {
		return err
	}
	return unix.Bind(s.fd, sa)
}

func (s *Socket) Connect(a address.Address) error {
	if s.closed {
		return ErrClosed
	}
	sa, err := s.toSockaddr(a)
	if err != nil {
		return err
	}
	return unix.Connect(s.fd, sa)
}

func (s *Socket) SetOption(level, name, value int) error {
	if s.closed {
		return ErrClosed
	}
	return unix.SetsockoptInt(s.fd, level, name, value)
}

func (s *Socket) GetOption(level, name int) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return unix.GetsockoptInt(s.fd, level, name)
}

func (s *Socket) SetNonblock(enabled bool) error {
	if s.closed {
		return ErrClosed
	}
	return unix.SetNonblock(s.fd, enabled)
}

// LocalAddr returns the address the socket is bound to.
func (s *Socket) LocalAddr() (address.Address, error) {
	if s.closed {
		return address.Address{}, ErrClosed
	}
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		return address.Address{}, err
	}
	return fromSockaddr(sa), nil
}

func (s *Socket) poll(timeout int) (PollEvent, error) {
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN | unix.POLLPRI}}
	n, err := unix.Poll(fds, timeout)
	if err != nil {
		return PollError, err
	}
	if n == 0 {
		return PollNone, nil
	}
	// 有数据时优先报告可读，错误留给下一次 receive
	if fds[0].Revents&(unix.POLLIN|unix.POLLPRI) != 0 {
		return PollReadable, nil
	}
	if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
		return PollError, nil
	}
	return PollNone, nil
}

// SendTo sends one datagram. The zero Address sends to the connected peer.
func (s *Socket) SendTo(data []byte, to address.Address) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	var sa unix.Sockaddr
	if to.IsValid() {
		var err error
		if sa, err = s.toSockaddr(to); err != nil {
			return 0, err
		}
	}
	return unix.SendmsgN(s.fd, data, nil, sa, 0)
}

// RecvFrom reads one datagram into buf. truncated is set when the datagram
// did not fit; n is then len(buf).
func (s *Socket) RecvFrom(buf []byte) (n int, from address.Address, truncated bool, err error) {
	if s.closed {
		return 0, address.Address{}, false, ErrClosed
	}
	n, _, flags, sa, err := unix.Recvmsg(s.fd, buf, nil, 0)
	if err != nil {
		return 0, address.Address{}, false, err
	}
	if sa != nil {
		from = fromSockaddr(sa)
	}
	return n, from, flags&unix.MSG_TRUNC != 0, nil
}

func classifyOS(err error) Kind {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return KindOther
	}
	switch errno {
	case unix.EAGAIN:
		return KindWouldBlock
	case unix.EINTR:
		return KindInterrupted
	case unix.EADDRINUSE:
		return KindAddrInUse
	case unix.EADDRNOTAVAIL, unix.EAFNOSUPPORT:
		return KindInvalidAddress
	case unix.EMSGSIZE:
		return KindMsgSize
	case unix.ECONNRESET, unix.ECONNREFUSED:
		return KindConnReset
	}
	// EWOULDBLOCK 在部分平台上与 EAGAIN 不同值
	if errno == unix.EWOULDBLOCK {
		return KindWouldBlock
	}
	return KindOther
}

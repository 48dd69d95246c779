//go:build windows

package sockets

import (
	"errors"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/OpenListTeam/nanosockets/address"
)

type fdType = windows.Handle

// Option levels and names commonly passed to SetOption.
const (
	LevelSocket         = windows.SOL_SOCKET
	OptionSendBuffer    = windows.SO_SNDBUF
	OptionReceiveBuffer = windows.SO_RCVBUF

	LevelIP           = windows.IPPROTO_IP
	LevelIPv6         = windows.IPPROTO_IPV6
	OptionTTL         = windows.IP_TTL
	OptionUnicastHops = windows.IPV6_UNICAST_HOPS
)

// 以下常量 x/sys/windows 未导出
const (
	fionbio = 0x8004667e

	pollRdNorm = 0x0100
	pollRdBand = 0x0200
	pollErr    = 0x0001
	pollHup    = 0x0002
	pollNval   = 0x0004
)

var (
	modws2_32   = windows.NewLazySystemDLL("ws2_32.dll")
	procWSAPoll = modws2_32.NewProc("WSAPoll")
)

// wsaPollFd mirrors WSAPOLLFD.
type wsaPollFd struct {
	fd      windows.Handle
	events  int16
	revents int16
}

func startup() error {
	var data windows.WSAData
	return windows.WSAStartup(uint32(0x202), &data)
}

func cleanup() error { return windows.WSACleanup() }

func closeFd(fd windows.Handle) error {
	if fd == windows.InvalidHandle {
		return nil
	}
	return windows.Closesocket(fd)
}

// Open creates a dual-stack UDP socket, falling back to IPv4 only when the
// host has no IPv6 support.
func Open() (*Socket, error) {
	fd, err := windows.Socket(windows.AF_INET6, windows.SOCK_DGRAM, windows.IPPROTO_UDP)
	if err == nil {
		if err = windows.SetsockoptInt(fd, windows.IPPROTO_IPV6, windows.IPV6_V6ONLY, 0); err != nil {
			windows.Closesocket(fd)
			return nil, err
		}
		return &Socket{fd: fd, family: address.FamilyIPv6}, nil
	}
	if !errors.Is(err, windows.WSAEAFNOSUPPORT) {
		return nil, err
	}

	fd, err = windows.Socket(windows.AF_INET, windows.SOCK_DGRAM, windows.IPPROTO_UDP)
	if err != nil {
		return nil, err
	}
	return &Socket{fd: fd, family: address.FamilyIPv4}, nil
}

func (s *Socket) toSockaddr(a address.Address) (windows.Sockaddr, error) {
	if !a.IsValid() {
		return nil, ErrAddress
	}
	if s.family == address.FamilyIPv6 {
		return &windows.SockaddrInet6{Port: int(a.Port), Addr: a.As16()}, nil
	}
	v4, ok := a.IP.(address.IPv4)
	if !ok {
		return nil, ErrAddress
	}
	return &windows.SockaddrInet4{Port: int(a.Port), Addr: v4}, nil
}

func fromSockaddr(sa windows.Sockaddr) address.Address {
	switch sa := sa.(type) {
	case *windows.SockaddrInet6:
		return address.Address{IP: address.From16(sa.Addr), Port: uint16(sa.Port)}
	case *windows.SockaddrInet4:
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
	return windows.Bind(s.fd, sa)
}

func (s *Socket) Connect(a address.Address) error {
	if s.closed {
		return ErrClosed
	}
	sa, err := s.toSockaddr(a)
	if err != nil {
		return err
	}
	return windows.Connect(s.fd, sa)
}

func (s *Socket) SetOption(level, name, value int) error {
	if s.closed {
		return ErrClosed
	}
	return windows.SetsockoptInt(s.fd, level, name, value)
}

func (s *Socket) GetOption(level, name int) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return windows.GetsockoptInt(s.fd, level, name)
}

func (s *Socket) SetNonblock(enabled bool) error {
	if s.closed {
		return ErrClosed
	}
	var flag uint32
	if enabled {
		flag = 1
	}
	var returned uint32
	return windows.WSAIoctl(s.fd, fionbio, (*byte)(unsafe.Pointer(&flag)), uint32(unsafe.Sizeof(flag)), nil, 0, &returned, nil, 0)
}

// LocalAddr returns the address the socket is bound to.
func (s *Socket) LocalAddr() (address.Address, error) {
	if s.closed {
		return address.Address{}, ErrClosed
	}
	sa, err := windows.Getsockname(s.fd)
	if err != nil {
		return address.Address{}, err
	}
	return fromSockaddr(sa), nil
}

func (s *Socket) poll(timeout int) (PollEvent, error) {
	if err := procWSAPoll.Find(); err != nil {
		return PollError, err
	}
	fds := []wsaPollFd{{fd: s.fd, events: pollRdNorm | pollRdBand}}
	r1, _, e1 := procWSAPoll.Call(uintptr(unsafe.Pointer(&fds[0])), uintptr(len(fds)), uintptr(timeout))
	n := int32(r1)
	if n < 0 {
		return PollError, e1
	}
	if n == 0 {
		return PollNone, nil
	}
	if fds[0].revents&(pollRdNorm|pollRdBand) != 0 {
		return PollReadable, nil
	}
	if fds[0].revents&(pollErr|pollHup|pollNval) != 0 {
		return PollError, nil
	}
	return PollNone, nil
}

// SendTo sends one datagram. The zero Address sends to the connected peer.
func (s *Socket) SendTo(data []byte, to address.Address) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if !to.IsValid() {
		buf := windows.WSABuf{Len: uint32(len(data))}
		if len(data) > 0 {
			buf.Buf = &data[0]
		}
		var sent uint32
		if err := windows.WSASend(s.fd, &buf, 1, &sent, 0, nil, nil); err != nil {
			return 0, err
		}
		return int(sent), nil
	}

	sa, err := s.toSockaddr(to)
	if err != nil {
		return 0, err
	}
	if err := windows.Sendto(s.fd, data, 0, sa); err != nil {
		return 0, err
	}
	return len(data), nil
}

// RecvFrom reads one datagram into buf. truncated is set when the datagram
// did not fit (WSAEMSGSIZE); n is then len(buf).
func (s *Socket) RecvFrom(buf []byte) (n int, from address.Address, truncated bool, err error) {
	if s.closed {
		return 0, address.Address{}, false, ErrClosed
	}
	if len(buf) == 0 {
		return 0, address.Address{}, false, windows.WSAEMSGSIZE
	}

	wsaBuf := windows.WSABuf{Len: uint32(len(buf)), Buf: &buf[0]}
	var (
		recvd uint32
		flags uint32
		rsa   windows.RawSockaddrAny
	)
	fromLen := int32(unsafe.Sizeof(rsa))
	err = windows.WSARecvFrom(s.fd, &wsaBuf, 1, &recvd, &flags, &rsa, &fromLen, nil, nil)
	switch {
	case err == nil:
		n = int(recvd)
	case errors.Is(err, windows.WSAEMSGSIZE):
		// 数据报被截断，缓冲区已填满
		n, truncated, err = len(buf), true, nil
	default:
		return 0, address.Address{}, false, err
	}

	if sa, saErr := rsa.Sockaddr(); saErr == nil {
		from = fromSockaddr(sa)
	}
	return n, from, truncated, nil
}

func classifyOS(err error) Kind {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return KindOther
	}
	switch errno {
	case windows.WSAEWOULDBLOCK:
		return KindWouldBlock
	case windows.WSAEINTR:
		return KindInterrupted
	case windows.WSAEADDRINUSE:
		return KindAddrInUse
	case windows.WSAEADDRNOTAVAIL, windows.WSAEAFNOSUPPORT:
		return KindInvalidAddress
	case windows.WSAEMSGSIZE:
		return KindMsgSize
	case windows.WSAECONNRESET:
		return KindConnReset
	}
	return KindOther
}

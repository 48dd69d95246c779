// Package sockets is the thin platform layer under the udp package: it owns
// raw OS datagram sockets and translates between address.Address and the
// platform sockaddr forms.
//
// A Socket is not safe for concurrent use; callers serialize access.
package sockets

import (
	"errors"
	"math"
	"time"

	"github.com/OpenListTeam/nanosockets/address"
)

var (
	// ErrUnsupported is returned for operations the current platform has no
	// equivalent for.
	ErrUnsupported = errors.ErrUnsupported
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("socket closed")
	// ErrAddress is returned when an address cannot be expressed on the
	// socket's family, e.g. an IPv6 address on an IPv4-only socket.
	ErrAddress = errors.New("address not representable on socket")
)

// PollEvent is the outcome of Poll.
type PollEvent uint8

const (
	PollNone PollEvent = iota
	PollReadable
	PollError
)

func (e PollEvent) String() string {
	switch e {
	case PollNone:
		return "timeout"
	case PollReadable:
		return "readable"
	default:
		return "error"
	}
}

// Kind groups platform errors the way callers need to react to them.
type Kind uint8

const (
	KindOther Kind = iota
	KindWouldBlock
	KindInterrupted
	KindAddrInUse
	KindInvalidAddress
	KindMsgSize
	KindConnReset
)

// Classify maps err (an errno, possibly wrapped) to a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindOther
	}
	if errors.Is(err, ErrAddress) {
		return KindInvalidAddress
	}
	return classifyOS(err)
}

// Socket is one OS-level UDP socket.
type Socket struct {
	fd fdType
	// FamilyIPv6 means dual-stack (AF_INET6 with V6ONLY off), FamilyIPv4 means
	// the AF_INET fallback.
	family address.Family
	closed bool
}

// Family reports which address family the socket was opened with.
func (s *Socket) Family() address.Family { return s.family }

// DualStack reports whether both IPv4 and IPv6 peers are reachable.
func (s *Socket) DualStack() bool { return s.family == address.FamilyIPv6 }

// Close releases the descriptor. Calling it twice is harmless.
func (s *Socket) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return closeFd(s.fd)
}

// maxPollMillis caps a single wait so it fits the platform's int timeout.
const maxPollMillis = math.MaxInt32

// Poll waits up to timeoutMillis for the socket to become readable.
// Negative waits forever, zero only checks. A wait interrupted by a signal
// resumes with whatever time is left.
func (s *Socket) Poll(timeoutMillis int64) (PollEvent, error) {
	if s.closed {
		return PollError, ErrClosed
	}
	if timeoutMillis < 0 {
		for {
			ev, err := s.poll(-1)
			if Classify(err) != KindInterrupted {
				return ev, err
			}
		}
	}

	if timeoutMillis > maxPollMillis {
		timeoutMillis = maxPollMillis
	}
	deadline := time.Now().Add(time.Duration(timeoutMillis) * time.Millisecond)
	remaining := timeoutMillis
	for {
		ev, err := s.poll(int(remaining))
		if Classify(err) != KindInterrupted {
			return ev, err
		}
		remaining = time.Until(deadline).Milliseconds()
		if remaining <= 0 {
			return PollNone, nil
		}
	}
}

// SetBuffers applies SO_SNDBUF and SO_RCVBUF; non-positive sizes keep the
// platform default.
func (s *Socket) SetBuffers(sendSize, receiveSize int) error {
	if sendSize > 0 {
		if err := s.SetOption(LevelSocket, OptionSendBuffer, sendSize); err != nil {
			return err
		}
	}
	if receiveSize > 0 {
		if err := s.SetOption(LevelSocket, OptionReceiveBuffer, receiveSize); err != nil {
			return err
		}
	}
	return nil
}

// SetDontFragment marks outgoing datagrams with the don't-fragment bit.
func (s *Socket) SetDontFragment() error {
	if s.closed {
		return ErrClosed
	}
	return setDontFragment(s)
}

// Startup prepares the platform networking subsystem; a no-op outside
// Windows.
func Startup() error { return startup() }

// Cleanup undoes Startup.
func Cleanup() error { return cleanup() }

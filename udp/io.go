package udp

import (
	"time"

	"github.com/OpenListTeam/nanosockets/address"
	"github.com/OpenListTeam/nanosockets/common/bytespool"
	"github.com/OpenListTeam/nanosockets/manager/sockets"
	"github.com/OpenListTeam/nanosockets/metrics"
	"github.com/OpenListTeam/nanosockets/status"
)

// PollStatus is the outcome of Poll.
type PollStatus int8

const (
	PollTimeout  PollStatus = 0
	PollReadable PollStatus = 1
	PollError    PollStatus = -1
)

func (s PollStatus) String() string {
	switch s {
	case PollTimeout:
		return "timeout"
	case PollReadable:
		return "readable"
	default:
		return "error"
	}
}

// ReceiveResult describes one datagram read into caller memory.
type ReceiveResult struct {
	N    int
	From address.Address
	// Truncated is set when the datagram was longer than the buffer; only
	// the first N bytes were kept.
	Truncated bool
}

// Datagram is one received datagram in memory owned by the caller.
type Datagram struct {
	Data      []byte
	From      address.Address
	Truncated bool
}

// Poll waits up to timeoutMillis for the socket to become readable.
// A negative timeout waits indefinitely and zero only checks. The handle
// stays locked while waiting.
func (h *Host) Poll(handle Handle, timeoutMillis int64) (PollStatus, error) {
	const op = "poll"
	s, unlock, err := h.acquire(handle, op)
	if err != nil {
		return PollError, err
	}
	defer unlock()

	start := time.Now()
	ev, err := s.sock.Poll(timeoutMillis)
	metrics.GetObserver(metrics.MetricPollDurationObserver, nil).Observe(time.Since(start).Seconds())
	if err != nil {
		return PollError, h.fail(handle, op, status.Error, err)
	}

	switch ev {
	case sockets.PollReadable:
		return PollReadable, nil
	case sockets.PollError:
		return PollError, nil
	default:
		return PollTimeout, nil
	}
}

// Send transmits data as one datagram to dst, or to the connected peer
// when dst is the zero Address. It returns len(data) on success.
func (h *Host) Send(handle Handle, dst address.Address, data []byte) (int, error) {
	const op = "send"
	s, unlock, err := h.acquire(handle, op)
	if err != nil {
		return 0, err
	}
	defer unlock()

	n, err := s.sock.SendTo(data, dst)
	if err != nil {
		return 0, h.fail(handle, op, status.SendFailed, err)
	}
	s.active = true

	metrics.GetCounter(metrics.MetricDatagramsSentCounter, nil).Inc()
	metrics.GetCounter(metrics.MetricBytesSentCounter, nil).Add(float64(n))
	return n, nil
}

// ReceiveFrom reads at most one datagram into buf. buf is not retained.
func (h *Host) ReceiveFrom(handle Handle, buf []byte) (ReceiveResult, error) {
	const op = "receive"
	s, unlock, err := h.acquire(handle, op)
	if err != nil {
		return ReceiveResult{}, err
	}
	defer unlock()

	if len(buf) == 0 {
		return ReceiveResult{}, h.fail(handle, op, status.BufferTooSmall, nil)
	}
	return h.receive(s, handle, buf)
}

func (h *Host) receive(s *socket, handle Handle, buf []byte) (ReceiveResult, error) {
	const op = "receive"

	n, from, truncated, err := s.sock.RecvFrom(buf)
	if err != nil {
		return ReceiveResult{}, h.fail(handle, op, status.ReceiveFailed, err)
	}
	s.active = true

	metrics.GetCounter(metrics.MetricDatagramsReceivedCounter, nil).Inc()
	metrics.GetCounter(metrics.MetricBytesReceivedCounter, nil).Add(float64(n))
	if truncated {
		h.log.WithFields(map[string]any{
			"handle": int64(handle),
			"from":   from.String(),
			"kept":   n,
		}).Debug("datagram truncated")
	}
	return ReceiveResult{N: n, From: from, Truncated: truncated}, nil
}

// Receive reads at most one datagram of up to maxLength bytes into a newly
// allocated slice.
func (h *Host) Receive(handle Handle, maxLength int) (Datagram, error) {
	const op = "receive"
	s, unlock, err := h.acquire(handle, op)
	if err != nil {
		return Datagram{}, err
	}
	defer unlock()

	if maxLength <= 0 {
		return Datagram{}, h.fail(handle, op, status.BufferTooSmall, nil)
	}

	scratch := bytespool.Alloc(maxLength)
	defer bytespool.Free(scratch)

	res, err := h.receive(s, handle, scratch)
	if err != nil {
		return Datagram{}, err
	}
	data := make([]byte, res.N)
	copy(data, scratch[:res.N])
	return Datagram{Data: data, From: res.From, Truncated: res.Truncated}, nil
}

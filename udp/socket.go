package udp

import (
	"errors"
	"sync"

	"github.com/OpenListTeam/nanosockets/manager/sockets"
	"github.com/OpenListTeam/nanosockets/metrics"
	"github.com/OpenListTeam/nanosockets/status"
)

// ErrSocketActive is wrapped by Bind and Connect once the socket has sent
// or received data.
var ErrSocketActive = errors.New("socket already carried traffic")

// socket is one table entry. mu is held for the whole platform
// interaction of every call on the handle.
type socket struct {
	mu     sync.Mutex
	sock   *sockets.Socket
	active bool
	closed bool
}

// lock takes the locks protecting s, in the host-wide order: global first.
func (h *Host) lock(s *socket) (unlock func()) {
	if h.lockMode == LockGlobal {
		h.global.Lock()
		s.mu.Lock()
		return func() {
			s.mu.Unlock()
			h.global.Unlock()
		}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// acquire resolves handle and locks its entry. The caller must call unlock.
func (h *Host) acquire(handle Handle, op string) (*socket, func(), error) {
	if !h.isInitialized() {
		return nil, nil, h.fail(handle, op, status.NotInitialized, nil)
	}
	s, ok := h.table.Get(int64(handle))
	if !ok {
		return nil, nil, h.fail(handle, op, status.InvalidHandle, nil)
	}

	unlock := h.lock(s)
	// destroyed while we were waiting
	if s.closed {
		unlock()
		return nil, nil, h.fail(handle, op, status.InvalidHandle, nil)
	}
	return s, unlock, nil
}

// closeSocket is the table's removal hook.
func (h *Host) closeSocket(s *socket) {
	unlock := h.lock(s)
	defer unlock()

	if s.closed {
		return
	}
	s.closed = true
	if err := s.sock.Close(); err != nil {
		h.log.Debugf("close: %v", err)
	}
	metrics.GetGauge(metrics.MetricSocketsGauge, nil).Dec()
}

// fail builds the error returned to the caller, refining code by the
// platform error kind, and records it.
func (h *Host) fail(handle Handle, op string, code status.Code, err error) error {
	switch sockets.Classify(err) {
	case sockets.KindWouldBlock:
		code = status.WouldBlock
	case sockets.KindAddrInUse:
		if code == status.BindFailed {
			code = status.AddressInUse
		}
	case sockets.KindInvalidAddress:
		if code == status.BindFailed {
			code = status.InvalidAddress
		}
	}

	if code != status.WouldBlock {
		metrics.GetCounter(metrics.MetricErrorsCounter, metrics.Labels{
			"op":   op,
			"code": code.Label(),
		}).Inc()
		fields := map[string]any{"op": op, "code": code.String()}
		if handle != InvalidHandle {
			fields["handle"] = int64(handle)
		}
		if err != nil {
			h.log.WithFields(fields).Debug(err)
		} else {
			h.log.WithFields(fields).Debug("failed")
		}
	}
	return status.New(code, op, err)
}

package udp

import (
	"github.com/OpenListTeam/nanosockets/address"
	"github.com/OpenListTeam/nanosockets/status"
)

// Bind assigns the local address. Binding a dual-stack socket to "::"
// accepts IPv4 and IPv6 peers alike.
func (h *Host) Bind(handle Handle, addr address.Address) error {
	const op = "bind"
	s, unlock, err := h.acquire(handle, op)
	if err != nil {
		return err
	}
	defer unlock()

	if s.active {
		return h.fail(handle, op, status.BindFailed, ErrSocketActive)
	}
	if err := s.sock.Bind(addr); err != nil {
		return h.fail(handle, op, status.BindFailed, err)
	}
	return nil
}

// Connect fixes the default peer; Send with the zero Address then goes
// there and datagrams from other sources are filtered by the platform.
func (h *Host) Connect(handle Handle, addr address.Address) error {
	const op = "connect"
	s, unlock, err := h.acquire(handle, op)
	if err != nil {
		return err
	}
	defer unlock()

	if s.active {
		return h.fail(handle, op, status.ConnectFailed, ErrSocketActive)
	}
	if err := s.sock.Connect(addr); err != nil {
		return h.fail(handle, op, status.ConnectFailed, err)
	}
	return nil
}

// SetOption passes an integer socket option to the platform unchecked.
func (h *Host) SetOption(handle Handle, level, name int, value int32) error {
	const op = "set option"
	s, unlock, err := h.acquire(handle, op)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.sock.SetOption(level, name, int(value)); err != nil {
		return h.fail(handle, op, status.OptionFailed, err)
	}
	return nil
}

// GetOption reads an integer socket option.
func (h *Host) GetOption(handle Handle, level, name int) (int32, error) {
	const op = "get option"
	s, unlock, err := h.acquire(handle, op)
	if err != nil {
		return 0, err
	}
	defer unlock()

	v, err := s.sock.GetOption(level, name)
	if err != nil {
		return 0, h.fail(handle, op, status.OptionFailed, err)
	}
	return int32(v), nil
}

func (h *Host) SetNonBlocking(handle Handle, enabled bool) error {
	const op = "set non-blocking"
	s, unlock, err := h.acquire(handle, op)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.sock.SetNonblock(enabled); err != nil {
		return h.fail(handle, op, status.OptionFailed, err)
	}
	return nil
}

// SetDontFragment forbids fragmentation of outgoing datagrams. Platforms
// without a matching option fail with OptionFailed.
func (h *Host) SetDontFragment(handle Handle) error {
	const op = "set dont-fragment"
	s, unlock, err := h.acquire(handle, op)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.sock.SetDontFragment(); err != nil {
		return h.fail(handle, op, status.OptionFailed, err)
	}
	return nil
}

// LocalAddress returns the address the socket is bound to. IPv4 addresses
// on a dual-stack socket come back as the IPv4 variant.
func (h *Host) LocalAddress(handle Handle) (address.Address, error) {
	const op = "local address"
	s, unlock, err := h.acquire(handle, op)
	if err != nil {
		return address.Address{}, err
	}
	defer unlock()

	addr, err := s.sock.LocalAddr()
	if err != nil {
		return address.Address{}, h.fail(handle, op, status.Error, err)
	}
	return addr, nil
}

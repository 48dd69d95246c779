//go:build !linux && !darwin && !freebsd && !windows

package sockets

func setDontFragment(*Socket) error {
	return ErrUnsupported
}

package udp

import (
	"sync"

	"github.com/OpenListTeam/nanosockets/address"
)

var (
	defaultHost *Host
	defaultOnce sync.Once
)

// Default returns the process-wide host used by the package-level
// functions.
func Default() *Host {
	defaultOnce.Do(func() {
		defaultHost = NewHost()
	})
	return defaultHost
}

func Initialize() error { return Default().Initialize() }

func Deinitialize() { Default().Deinitialize() }

func Create(sendBufferSize, receiveBufferSize int) (Handle, error) {
	return Default().Create(sendBufferSize, receiveBufferSize)
}

func Destroy(handle Handle) error { return Default().Destroy(handle) }

func Bind(handle Handle, addr address.Address) error { return Default().Bind(handle, addr) }

func Connect(handle Handle, addr address.Address) error { return Default().Connect(handle, addr) }

func SetOption(handle Handle, level, name int, value int32) error {
	return Default().SetOption(handle, level, name, value)
}

func GetOption(handle Handle, level, name int) (int32, error) {
	return Default().GetOption(handle, level, name)
}

func SetNonBlocking(handle Handle, enabled bool) error {
	return Default().SetNonBlocking(handle, enabled)
}

func SetDontFragment(handle Handle) error { return Default().SetDontFragment(handle) }

func LocalAddress(handle Handle) (address.Address, error) { return Default().LocalAddress(handle) }

func Poll(handle Handle, timeoutMillis int64) (PollStatus, error) {
	return Default().Poll(handle, timeoutMillis)
}

func Send(handle Handle, dst address.Address, data []byte) (int, error) {
	return Default().Send(handle, dst, data)
}

func ReceiveFrom(handle Handle, buf []byte) (ReceiveResult, error) {
	return Default().ReceiveFrom(handle, buf)
}

func Receive(handle Handle, maxLength int) (Datagram, error) {
	return Default().Receive(handle, maxLength)
}

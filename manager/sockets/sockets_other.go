//go:build !unix && !windows

package sockets

import "github.com/OpenListTeam/nanosockets/address"

type fdType = int

const (
	LevelSocket         = 0xffff
	OptionSendBuffer    = 0x1001
	OptionReceiveBuffer = 0x1002

	LevelIP           = 0
	LevelIPv6         = 41
	OptionTTL         = 4
	OptionUnicastHops = 4
)

func startup() error { return ErrUnsupported }
func cleanup() error { return nil }

func closeFd(int) error { return nil }

func Open() (*Socket, error) { return nil, ErrUnsupported }

func (s *Socket) Bind(address.Address) error             { return ErrUnsupported }
func (s *Socket) Connect(address.Address) error          { return ErrUnsupported }
func (s *Socket) SetOption(level, name, value int) error { return ErrUnsupported }
func (s *Socket) GetOption(level, name int) (int, error) { return 0, ErrUnsupported }
func (s *Socket) SetNonblock(bool) error                 { return ErrUnsupported }

func (s *Socket) LocalAddr() (address.Address, error) {
	return address.Address{}, ErrUnsupported
}

func (s *Socket) poll(int) (PollEvent, error) { return PollError, ErrUnsupported }

func (s *Socket) SendTo([]byte, address.Address) (int, error) { return 0, ErrUnsupported }

func (s *Socket) RecvFrom([]byte) (int, address.Address, bool, error) {
	return 0, address.Address{}, false, ErrUnsupported
}

func classifyOS(error) Kind { return KindOther }

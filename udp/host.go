// Package udp is the handle-based datagram socket API.
//
// A Host owns a table of sockets addressed by opaque integer handles:
//
//	h := udp.NewHost()
//	if err := h.Initialize(); err != nil { ... }
//	defer h.Deinitialize()
//
//	sock, err := h.Create(0, 0)
//	h.Bind(sock, address.MustNew("::", 5000))
//	h.SetNonBlocking(sock, true)
//	for {
//		if st, _ := h.Poll(sock, 100); st == udp.PollReadable {
//			dgram, err := h.Receive(sock, 1500)
//			...
//		}
//	}
//
// Every call on a handle is serialized with every other call on the same
// handle; calls on different handles run in parallel unless the host was
// built with LockModeOption(LockGlobal).
package udp

import (
	"context"
	"sync"

	"github.com/OpenListTeam/nanosockets/address"
	"github.com/OpenListTeam/nanosockets/logger"
	"github.com/OpenListTeam/nanosockets/manager/resource"
	"github.com/OpenListTeam/nanosockets/manager/sockets"
	"github.com/OpenListTeam/nanosockets/metrics"
	"github.com/OpenListTeam/nanosockets/status"
)

// Handle identifies a socket within a Host. Valid handles are positive.
type Handle int64

// InvalidHandle is returned by Create on failure.
const InvalidHandle Handle = 0

// Option levels and names for SetOption/GetOption.
const (
	LevelSocket         = sockets.LevelSocket
	OptionSendBuffer    = sockets.OptionSendBuffer
	OptionReceiveBuffer = sockets.OptionReceiveBuffer
	LevelIP             = sockets.LevelIP
	LevelIPv6           = sockets.LevelIPv6
	OptionTTL           = sockets.OptionTTL
	OptionUnicastHops   = sockets.OptionUnicastHops
)

// LockMode selects the serialization discipline.
type LockMode string

const (
	// LockPerHandle serializes calls per socket.
	LockPerHandle LockMode = "handle"
	// LockGlobal additionally serializes every socket call host-wide.
	LockGlobal LockMode = "global"
)

type options struct {
	logger   logger.Logger
	resolver address.Resolver
	lockMode LockMode
}

type Option func(opts *options)

func LoggerOption(log logger.Logger) Option {
	return func(opts *options) {
		opts.logger = log
	}
}

func ResolverOption(r address.Resolver) Option {
	return func(opts *options) {
		opts.resolver = r
	}
}

func LockModeOption(mode LockMode) Option {
	return func(opts *options) {
		opts.lockMode = mode
	}
}

// Host is one independent socket table plus its lifecycle state.
type Host struct {
	// mu guards initialized; Create holds it shared so that Deinitialize
	// cannot miss a socket being added.
	mu          sync.RWMutex
	initialized bool

	table  *resource.Manager[*socket]
	global sync.Mutex

	lockMode LockMode
	log      logger.Logger
	resolver address.Resolver
}

func NewHost(opts ...Option) *Host {
	var options options
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = logger.Nop()
	}
	if options.resolver == nil {
		options.resolver = address.DefaultResolver
	}
	if options.lockMode != LockGlobal {
		options.lockMode = LockPerHandle
	}

	h := &Host{
		lockMode: options.lockMode,
		log:      options.logger,
		resolver: options.resolver,
	}
	h.table = resource.NewManager(h.closeSocket)
	return h
}

// Initialize starts the platform networking subsystem. Calling it on an
// initialized host does nothing.
func (h *Host) Initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized {
		return nil
	}
	if err := sockets.Startup(); err != nil {
		h.log.Errorf("initialize: %v", err)
		return status.New(status.Error, "initialize", err)
	}
	h.initialized = true
	h.log.WithFields(map[string]any{"lock": string(h.lockMode)}).Debug("initialized")
	return nil
}

// Deinitialize closes every socket still open and releases the platform
// subsystem. Failures are logged, not returned. Afterwards every operation
// reports NotInitialized until Initialize is called again; handles from
// before stay invalid.
//
// Like Destroy, it waits for calls already in progress on each handle. A
// blocking Receive or a Poll with a negative timeout keeps it waiting until
// that call returns, so such loops should use non-blocking mode with a
// bounded Poll. Initialize and Create called meanwhile wait for the
// teardown to finish.
func (h *Host) Deinitialize() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.initialized {
		return
	}
	h.initialized = false

	// calls already holding a handle never take h.mu again
	n := h.table.Clear()
	if err := sockets.Cleanup(); err != nil {
		h.log.Warnf("deinitialize: %v", err)
	}
	h.log.WithFields(map[string]any{"closed": n}).Debug("deinitialized")
}

func (h *Host) isInitialized() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.initialized
}

// Len returns the number of open sockets.
func (h *Host) Len() int {
	return h.table.Len()
}

// Resolver returns the resolver used by the hostname helpers.
func (h *Host) Resolver() address.Resolver {
	return h.resolver
}

// ResolveHostname resolves name with the host's resolver.
func (h *Host) ResolveHostname(ctx context.Context, name string) (address.IP, error) {
	return h.resolver.ResolveHostname(ctx, name)
}

// ReverseHostname looks ip up with the host's resolver.
func (h *Host) ReverseHostname(ctx context.Context, ip address.IP) (string, error) {
	return h.resolver.ReverseHostname(ctx, ip)
}

// Create opens a dual-stack UDP socket. Positive buffer sizes are applied
// as SO_SNDBUF/SO_RCVBUF; zero or negative keeps the platform default.
func (h *Host) Create(sendBufferSize, receiveBufferSize int) (Handle, error) {
	const op = "create"

	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.initialized {
		return InvalidHandle, h.fail(InvalidHandle, op, status.NotInitialized, nil)
	}

	if h.lockMode == LockGlobal {
		h.global.Lock()
		defer h.global.Unlock()
	}

	sock, err := sockets.Open()
	if err != nil {
		return InvalidHandle, h.fail(InvalidHandle, op, status.CreateFailed, err)
	}
	if err := sock.SetBuffers(sendBufferSize, receiveBufferSize); err != nil {
		sock.Close()
		return InvalidHandle, h.fail(InvalidHandle, op, status.CreateFailed, err)
	}

	handle := Handle(h.table.Add(&socket{sock: sock}))
	metrics.GetGauge(metrics.MetricSocketsGauge, nil).Inc()
	h.log.WithFields(map[string]any{
		"handle": int64(handle),
		"family": sock.Family().String(),
	}).Debug("socket created")
	return handle, nil
}

// Destroy closes the socket and forgets the handle. It waits for a call
// in progress on the same handle to return.
func (h *Host) Destroy(handle Handle) error {
	const op = "destroy"
	if !h.isInitialized() {
		return h.fail(handle, op, status.NotInitialized, nil)
	}
	if _, ok := h.table.Remove(int64(handle)); !ok {
		return h.fail(handle, op, status.InvalidHandle, nil)
	}
	h.log.WithFields(map[string]any{"handle": int64(handle)}).Debug("socket destroyed")
	return nil
}

// Package status defines the result codes shared by every nanosockets
// operation and the error type that carries them.
//
// Code 0 means success; every failure kind is a distinct negative value so
// callers at a primitive boundary can forward the integer unchanged:
//
//	if err := host.Bind(h, addr); err != nil {
//		return int(status.CodeOf(err))
//	}
//
// Errors returned by this module match the exported sentinels with
// errors.Is, and unwrap to the underlying OS error when there is one.
package status

import (
	"errors"
	"strings"
)

// Code is a small integer status.
type Code int8

const (
	OK    Code = 0
	Error Code = -1

	NotInitialized       Code = -2
	InvalidAddressFormat Code = -3
	BufferTooSmall       Code = -4
	AddressInUse         Code = -5
	InvalidAddress       Code = -6
	BindFailed           Code = -7
	ConnectFailed        Code = -8
	OptionFailed         Code = -9
	WouldBlock           Code = -10
	ResolutionFailed     Code = -11
	SendFailed           Code = -12
	ReceiveFailed        Code = -13
	InvalidHandle        Code = -14
	CreateFailed         Code = -15
)

var codeNames = map[Code]string{
	OK:                   "ok",
	Error:                "error",
	NotInitialized:       "not initialized",
	InvalidAddressFormat: "invalid address format",
	BufferTooSmall:       "buffer too small",
	AddressInUse:         "address in use",
	InvalidAddress:       "invalid address",
	BindFailed:           "bind failed",
	ConnectFailed:        "connect failed",
	OptionFailed:         "option failed",
	WouldBlock:           "would block",
	ResolutionFailed:     "resolution failed",
	SendFailed:           "send failed",
	ReceiveFailed:        "receive failed",
	InvalidHandle:        "invalid handle",
	CreateFailed:         "create failed",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "unknown status"
}

// Label returns the code name in a form usable as a metric label.
func (c Code) Label() string {
	return strings.ReplaceAll(c.String(), " ", "_")
}

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrNotInitialized       = &OpError{Code: NotInitialized}
	ErrInvalidAddressFormat = &OpError{Code: InvalidAddressFormat}
	ErrBufferTooSmall       = &OpError{Code: BufferTooSmall}
	ErrAddressInUse         = &OpError{Code: AddressInUse}
	ErrInvalidAddress       = &OpError{Code: InvalidAddress}
	ErrBindFailed           = &OpError{Code: BindFailed}
	ErrConnectFailed        = &OpError{Code: ConnectFailed}
	ErrOptionFailed         = &OpError{Code: OptionFailed}
	ErrWouldBlock           = &OpError{Code: WouldBlock}
	ErrResolutionFailed     = &OpError{Code: ResolutionFailed}
	ErrSendFailed           = &OpError{Code: SendFailed}
	ErrReceiveFailed        = &OpError{Code: ReceiveFailed}
	ErrInvalidHandle        = &OpError{Code: InvalidHandle}
	ErrCreateFailed         = &OpError{Code: CreateFailed}
)

// OpError is a failed operation: which operation, which status, and the
// cause reported by the platform (may be nil).
type OpError struct {
	Code Code
	Op   string
	Err  error
}

// New returns an *OpError for op with an optional cause.
func New(code Code, op string, err error) error {
	return &OpError{Code: code, Op: op, Err: err}
}

func (e *OpError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Code.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *OpError) Unwrap() error { return e.Err }

// Is reports whether target is an *OpError with the same Code.
func (e *OpError) Is(target error) bool {
	t, ok := target.(*OpError)
	return ok && t.Code == e.Code
}

// CodeOf extracts the Code carried by err. nil maps to OK and errors that
// did not originate here map to Error.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var se *OpError
	if errors.As(err, &se) {
		return se.Code
	}
	return Error
}

// IsWouldBlock reports whether err is the non-fatal would-block signal.
func IsWouldBlock(err error) bool {
	return CodeOf(err) == WouldBlock
}

package ssh2

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock is returned by the wrapped library when a call on a
// non-blocking session cannot make progress right now. It is not a failure:
// the bridge absorbs it by waiting for socket readiness and retrying, and it
// never reaches callers of the bridged surface.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrorCode identifies a protocol-level failure class reported by the wrapped
// library.
type ErrorCode int

const (
	// CodeUnknown covers failures the library does not classify.
	CodeUnknown ErrorCode = iota
	// CodeKexFailure indicates key exchange could not be negotiated.
	CodeKexFailure
	// CodeSocketDisconnect indicates the peer closed the transport.
	CodeSocketDisconnect
	// CodeAuthenticationFailed indicates the server rejected the credentials.
	CodeAuthenticationFailed
	// CodePublicKeyUnverified indicates the offered public key was refused.
	CodePublicKeyUnverified
	// CodeChannelFailure indicates a channel open or request was refused.
	CodeChannelFailure
	// CodeChannelWindowExceeded indicates flow-control window exhaustion.
	CodeChannelWindowExceeded
	// CodeSFTPProtocol indicates an SFTP subsystem level failure.
	CodeSFTPProtocol
)

// Error is a protocol or transport failure reported by the wrapped library,
// surfaced verbatim with the library's code and diagnostic message. The
// bridge never retries these.
type Error struct {
	// Code is the library's failure classification.
	Code ErrorCode

	// Msg is the library's diagnostic message.
	Msg string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("ssh2: %s (code %d)", e.Msg, e.Code)
}

// IsAuthenticationFailure returns true if err is the wrapped library rejecting
// authentication, as opposed to a transport failure. Callers use this to
// drive auth-method fallback.
func IsAuthenticationFailure(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == CodeAuthenticationFailed || e.Code == CodePublicKeyUnverified
}

// IsChannelFailure returns true if err is a refused channel open or channel
// request (resource limits, server refusal).
func IsChannelFailure(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeChannelFailure
}

// IsSocketDisconnect returns true if err indicates the peer dropped the
// transport.
func IsSocketDisconnect(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeSocketDisconnect
}

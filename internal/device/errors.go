package device

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates every failure the protocol layer can report.
// Presentation layers derive their own display mapping from it.
type ErrorKind string

const (
	PermissionDenied     ErrorKind = "permission_denied"
	TransportUnavailable ErrorKind = "transport_unavailable"
	ScanFailed           ErrorKind = "scan_error"
	ConnectFailed        ErrorKind = "connect_error"
	MalformedPayload     ErrorKind = "malformed_payload"
	NotConnected         ErrorKind = "not_connected"
	AlreadyConnected     ErrorKind = "already_connected"
	WriteAckFailed       ErrorKind = "write_ack_failure"
	InvalidIDRange       ErrorKind = "invalid_id_range"
)

// Error is a classified protocol error
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Msg == "" && e.Err == nil:
		return string(e.Kind)
	case e.Msg == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
}

// Unwrap exposes the transport cause
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is allows errors.Is to compare Error values by Kind
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Predefined sentinel errors, one per kind
var (
	ErrPermissionDenied     = &Error{Kind: PermissionDenied}
	ErrTransportUnavailable = &Error{Kind: TransportUnavailable}
	ErrScanFailed           = &Error{Kind: ScanFailed}
	ErrConnectFailed        = &Error{Kind: ConnectFailed}
	ErrMalformedPayload     = &Error{Kind: MalformedPayload}
	ErrNotConnected         = &Error{Kind: NotConnected}
	ErrAlreadyConnected     = &Error{Kind: AlreadyConnected}
	ErrWriteAckFailed       = &Error{Kind: WriteAckFailed}
	ErrInvalidIDRange       = &Error{Kind: InvalidIDRange}
)

// NewError builds a classified error with an optional cause and a formatted message
func NewError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the kind of the first classified error in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind anywhere in its chain
func IsKind(err error, kind ErrorKind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

// Package errs defines the structured error type shared by the admission
// and lifecycle surfaces of the connection server (conn, server,
// client). Codec-level handshake/framing failures use the narrower
// codec.Error type instead; see package codec.
package errs

import "fmt"

// Code enumerates the closed set of admission/lifecycle failure kinds.
type Code int

const (
	CodeOK Code = iota
	CodeOutOfSpace
	CodeHandshakeQueueFull
	CodeAlreadyListening
	CodeNotListening
	CodeInvalidHandle
	CodeNotReady
	CodeClosed
)

func (c Code) String() string {
	switch c {
	case CodeOutOfSpace:
		return "OutOfSpace"
	case CodeHandshakeQueueFull:
		return "HandshakeQueueFull"
	case CodeAlreadyListening:
		return "AlreadyListening"
	case CodeNotListening:
		return "NotListening"
	case CodeInvalidHandle:
		return "InvalidHandle"
	case CodeNotReady:
		return "NotReady"
	case CodeClosed:
		return "Closed"
	default:
		return "OK"
	}
}

// Error is a structured admission/lifecycle error with a closed-set code
// and optional context, mirroring the teacher's api.Error/ErrorCode split.
type Error struct {
	Code    Code
	Message string
	Context map[string]any
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		if e.Message == "" {
			return e.Code.String()
		}
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (context: %+v)", e.Code, e.Message, e.Context)
}

// WithContext attaches a key/value pair to the error, returning e for
// chaining. It mutates e in place, so callers wanting an immutable
// sentinel should WithContext a copy rather than a shared var.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New builds an Error for the given code with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Clone returns a copy of e with an empty Context, so call sites can
// WithContext a package-level Err* sentinel without mutating the shared
// var.
func (e *Error) Clone() *Error {
	return &Error{Code: e.Code, Message: e.Message}
}

// Is reports whether err carries the given Code, unwrapping as needed.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if as, ok := err.(*Error); ok {
			e = as
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Code == code
}

var (
	ErrOutOfSpace          = New(CodeOutOfSpace, "no free slot in pool")
	ErrHandshakeQueueFull  = New(CodeHandshakeQueueFull, "no free handshake timer slot")
	ErrAlreadyListening    = New(CodeAlreadyListening, "server already listening")
	ErrNotListening        = New(CodeNotListening, "server not listening")
	ErrInvalidHandle       = New(CodeInvalidHandle, "handle does not refer to a live connection")
	ErrNotReady            = New(CodeNotReady, "connection is not open")
	ErrClosed              = New(CodeClosed, "connection is closed")
)

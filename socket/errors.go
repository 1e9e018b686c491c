package socket

import (
	"fmt"
	"syscall"

	"github.com/cockroachdb/errors"
)

// Kind represents the transport operation that failed
type Kind int

const (
	// KindCreate indicates the socket could not be created
	KindCreate Kind = iota
	// KindReuseAddr indicates SO_REUSEADDR could not be set
	KindReuseAddr
	// KindBind indicates the address could not be bound (in use, not available)
	KindBind
	// KindListen indicates the socket could not be put into listening mode
	KindListen
	// KindAccept indicates accepting a client connection failed
	KindAccept
	// KindSend indicates a write failed (broken pipe, reset, closed)
	KindSend
	// KindRecv indicates a read failed before the requested data arrived
	KindRecv
	// KindPeerName indicates the remote address could not be determined
	KindPeerName
	// KindSockName indicates the local address could not be determined
	KindSockName
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "socket creation failed"
	case KindReuseAddr:
		return "setting SO_REUSEADDR failed"
	case KindBind:
		return "bind failed"
	case KindListen:
		return "listen failed"
	case KindAccept:
		return "accept failed"
	case KindSend:
		return "write failed"
	case KindRecv:
		return "read failed"
	case KindPeerName:
		return "getpeername failed"
	case KindSockName:
		return "getsockname failed"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Error is a transport failure carrying the low-level OS error
type Error struct {
	Kind Kind
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// IsKind reports whether err is a transport error of the given kind
func IsKind(err error, kind Kind) bool {
	var sockErr *Error
	if errors.As(err, &sockErr) {
		return sockErr.Kind == kind
	}
	return false
}

// classifyListenError maps a failed net.Listen to the step that failed.
// The net package folds socket/bind/listen into one call, so the errno decides.
func classifyListenError(err error) *Error {
	var sockErr *Error
	if errors.As(err, &sockErr) {
		return sockErr
	}
	switch {
	case errors.Is(err, syscall.EADDRINUSE),
		errors.Is(err, syscall.EADDRNOTAVAIL),
		errors.Is(err, syscall.EACCES):
		return newError(KindBind, err)
	case errors.Is(err, syscall.EAFNOSUPPORT),
		errors.Is(err, syscall.EMFILE),
		errors.Is(err, syscall.ENFILE),
		errors.Is(err, syscall.EPROTONOSUPPORT):
		return newError(KindCreate, err)
	default:
		return newError(KindListen, err)
	}
}

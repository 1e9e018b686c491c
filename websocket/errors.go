package websocket

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorKind classifies protocol violations by the peer
type ErrorKind int

const (
	// KindUnknownOpCode indicates an opcode outside the RFC 6455 set
	KindUnknownOpCode ErrorKind = iota
	// KindUnmaskedFrame indicates a client frame without the mask bit
	KindUnmaskedFrame
	// KindProtocol indicates any other framing violation (reserved bits,
	// fragmented or oversized control frames, bad continuation)
	KindProtocol
	// KindInvalidUTF8 indicates a text message that is not valid UTF-8
	KindInvalidUTF8
)

// String returns a human-readable name for the kind
func (k ErrorKind) String() string {
	switch k {
	case KindUnknownOpCode:
		return "unknown opcode"
	case KindUnmaskedFrame:
		return "unmasked frame"
	case KindProtocol:
		return "protocol error"
	case KindInvalidUTF8:
		return "invalid UTF-8"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// ProtocolError is a framing violation that ends the session
type ProtocolError struct {
	Kind   ErrorKind
	Detail string
}

// Error implements the error interface
func (e *ProtocolError) Error() string {
	if e.Detail == "" {
		return "websocket: " + e.Kind.String()
	}
	return fmt.Sprintf("websocket: %s: %s", e.Kind, e.Detail)
}

func newProtocolError(kind ErrorKind, detail string) *ProtocolError {
	return &ProtocolError{Kind: kind, Detail: detail}
}

// IsKind reports whether err is a protocol error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr.Kind == kind
	}
	return false
}

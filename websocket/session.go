package websocket

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/nanohttp/internal/logging"
	"github.com/muurk/nanohttp/socket"
)

// errPeerClosed ends the read loop after a close frame
var errPeerClosed = errors.New("close frame received")

// Callbacks are invoked from the session's read loop. All of them are
// optional.
type Callbacks struct {
	Text         func(s *Session, text string)
	Binary       func(s *Session, data []byte)
	Pong         func(s *Session, data []byte)
	Connected    func(s *Session)
	Disconnected func(s *Session)

	// Logger receives protocol errors and frame dumps. Defaults to the
	// process-wide logger.
	Logger *zap.Logger

	// MaxMessageSize caps a message reassembled from fragments. Defaults to
	// MaxPayloadSize.
	MaxMessageSize int
}

// Session is one upgraded connection. Writes are safe from any goroutine.
type Session struct {
	id     uuid.UUID
	sock   *socket.Socket
	logger *zap.Logger
	remote string

	writeMu sync.Mutex
}

func newSession(sock *socket.Socket, logger *zap.Logger) *Session {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Session{
		id:     uuid.New(),
		sock:   sock,
		logger: logger,
		remote: sock.RemoteAddr(),
	}
}

// ID identifies the session
func (s *Session) ID() uuid.UUID {
	return s.id
}

// RemoteAddr returns the peer address
func (s *Session) RemoteAddr() string {
	return s.remote
}

// WriteText sends a text message in a single frame
func (s *Session) WriteText(text string) error {
	return s.WriteFrame(OpText, []byte(text), true)
}

// WriteBinary sends a binary message in a single frame
func (s *Session) WriteBinary(data []byte) error {
	return s.WriteFrame(OpBinary, data, true)
}

// WriteFrame sends one frame
func (s *Session) WriteFrame(op OpCode, payload []byte, fin bool) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	logging.LogWebSocketFrame(s.logger, s.remote, "sent", op.String(), payload)
	return WriteFrame(s.sock, op, payload, fin)
}

// WriteClose sends an empty close frame
func (s *Session) WriteClose() error {
	return s.WriteFrame(OpClose, nil, true)
}

// Close closes the underlying connection, which ends the read loop
func (s *Session) Close() error {
	return s.sock.Close()
}

// run drives the session until the peer closes or violates the protocol.
// Errors end the session and are logged, never returned.
func (s *Session) run(cb Callbacks) {
	logging.LogConnection(s.logger, s.remote, "websocket_connected")
	if cb.Connected != nil {
		cb.Connected(s)
	}

	err := s.readLoop(cb)
	var protoErr *ProtocolError
	switch {
	case errors.Is(err, errPeerClosed):
		logging.LogConnection(s.logger, s.remote, "websocket_closed_by_peer")
	case errors.As(err, &protoErr):
		s.logger.Warn("WebSocket protocol error",
			zap.String("remote_addr", s.remote),
			zap.String("kind", protoErr.Kind.String()),
			zap.Error(err),
		)
	default:
		s.logger.Debug("WebSocket connection ended",
			zap.String("remote_addr", s.remote),
			zap.Error(err),
		)
	}

	if err := s.WriteClose(); err != nil {
		s.logger.Debug("Failed to send close frame",
			zap.String("remote_addr", s.remote),
			zap.Error(err),
		)
	}
	if cb.Disconnected != nil {
		cb.Disconnected(s)
	}
}

func (s *Session) readLoop(cb Callbacks) error {
	limit := cb.MaxMessageSize
	if limit <= 0 {
		limit = MaxPayloadSize
	}

	var (
		fragmentOp OpCode
		fragments  []byte
		inProgress bool
	)

	for {
		frame, err := ReadFrame(s.sock)
		if err != nil {
			return err
		}
		logging.LogWebSocketFrame(s.logger, s.remote, "received", frame.OpCode.String(), frame.Payload)

		switch frame.OpCode {
		case OpContinuation:
			if !inProgress {
				return newProtocolError(KindProtocol, "continuation frame without a fragmented message")
			}
			if len(fragments)+len(frame.Payload) > limit {
				return newProtocolError(KindProtocol,
					fmt.Sprintf("fragmented message exceeds %d bytes", limit))
			}
			fragments = append(fragments, frame.Payload...)
			if frame.Fin {
				payload := fragments
				inProgress, fragments = false, nil
				if err := s.deliver(cb, fragmentOp, payload); err != nil {
					return err
				}
			}

		case OpText, OpBinary:
			if inProgress {
				return newProtocolError(KindProtocol, "new message while a fragmented message is in progress")
			}
			if !frame.Fin {
				if len(frame.Payload) > limit {
					return newProtocolError(KindProtocol,
						fmt.Sprintf("fragmented message exceeds %d bytes", limit))
				}
				inProgress = true
				fragmentOp = frame.OpCode
				fragments = append([]byte(nil), frame.Payload...)
				continue
			}
			if err := s.deliver(cb, frame.OpCode, frame.Payload); err != nil {
				return err
			}

		case OpPing:
			if err := s.WriteFrame(OpPong, frame.Payload, true); err != nil {
				return err
			}

		case OpPong:
			if cb.Pong != nil {
				cb.Pong(s, frame.Payload)
			}

		case OpClose:
			return errPeerClosed
		}
	}
}

func (s *Session) deliver(cb Callbacks, op OpCode, payload []byte) error {
	switch op {
	case OpText:
		if !utf8.Valid(payload) {
			return newProtocolError(KindInvalidUTF8, "")
		}
		if cb.Text != nil {
			cb.Text(s, string(payload))
		}
	case OpBinary:
		if cb.Binary != nil {
			cb.Binary(s, payload)
		}
	}
	return nil
}

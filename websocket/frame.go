package websocket

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
)

// OpCode is the 4-bit frame type
type OpCode byte

// WebSocket frame opcodes
const (
	OpContinuation OpCode = 0x0
	OpText         OpCode = 0x1
	OpBinary       OpCode = 0x2
	OpClose        OpCode = 0x8
	OpPing         OpCode = 0x9
	OpPong         OpCode = 0xA
)

const (
	// maxControlPayload is the largest payload a control frame may carry
	maxControlPayload = 125
	// MaxPayloadSize caps the payload of a single frame
	MaxPayloadSize = 64 << 20
)

// String returns a human-readable opcode name
func (op OpCode) String() string {
	switch op {
	case OpContinuation:
		return "continuation"
	case OpText:
		return "text"
	case OpBinary:
		return "binary"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	default:
		return fmt.Sprintf("unknown(0x%X)", byte(op))
	}
}

// IsControl reports whether op is close, ping or pong
func (op OpCode) IsControl() bool {
	return op == OpClose || op == OpPing || op == OpPong
}

func knownOpCode(op OpCode) bool {
	switch op {
	case OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong:
		return true
	}
	return false
}

// Frame is one decoded WebSocket frame
type Frame struct {
	OpCode  OpCode
	Fin     bool
	RSV1    bool
	RSV2    bool
	RSV3    bool
	Payload []byte
}

// String returns a debug representation of the frame
func (f *Frame) String() string {
	return fmt.Sprintf("Frame{Fin=%v, OpCode=%s, Length=%d}", f.Fin, f.OpCode, len(f.Payload))
}

// ReadFrame reads one client frame. Clients must mask their frames, must
// leave the reserved bits clear and must not fragment control frames.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, errors.Wrap(err, "read frame header")
	}

	frame := &Frame{
		Fin:    header[0]&0x80 != 0,
		RSV1:   header[0]&0x40 != 0,
		RSV2:   header[0]&0x20 != 0,
		RSV3:   header[0]&0x10 != 0,
		OpCode: OpCode(header[0] & 0x0F),
	}

	if frame.RSV1 || frame.RSV2 || frame.RSV3 {
		return nil, newProtocolError(KindProtocol, "reserved bits must be zero")
	}
	if !knownOpCode(frame.OpCode) {
		return nil, newProtocolError(KindUnknownOpCode, frame.OpCode.String())
	}
	if frame.OpCode.IsControl() && !frame.Fin {
		return nil, newProtocolError(KindProtocol, "fragmented "+frame.OpCode.String()+" frame")
	}
	if header[1]&0x80 == 0 {
		return nil, newProtocolError(KindUnmaskedFrame, "client frames must be masked")
	}

	length := uint64(header[1] & 0x7F)
	switch length {
	case 126:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, errors.Wrap(err, "read extended length")
		}
		length = uint64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, errors.Wrap(err, "read extended length")
		}
		length = binary.BigEndian.Uint64(ext[:])
	}

	if frame.OpCode.IsControl() && length > maxControlPayload {
		return nil, newProtocolError(KindProtocol,
			fmt.Sprintf("%s payload of %d bytes exceeds %d", frame.OpCode, length, maxControlPayload))
	}
	if length > MaxPayloadSize {
		return nil, newProtocolError(KindProtocol, fmt.Sprintf("payload of %d bytes is too large", length))
	}

	var mask [4]byte
	if _, err := io.ReadFull(r, mask[:]); err != nil {
		return nil, errors.Wrap(err, "read mask key")
	}

	frame.Payload = make([]byte, length)
	if _, err := io.ReadFull(r, frame.Payload); err != nil {
		return nil, errors.Wrap(err, "read payload")
	}
	for i := range frame.Payload {
		frame.Payload[i] ^= mask[i%4]
	}

	return frame, nil
}

// EncodeFrame builds an unmasked server frame
func EncodeFrame(op OpCode, payload []byte, fin bool) []byte {
	payloadLen := len(payload)
	frame := make([]byte, 0, payloadLen+10)

	first := byte(op) & 0x0F
	if fin {
		first |= 0x80
	}
	frame = append(frame, first)

	switch {
	case payloadLen < 126:
		frame = append(frame, byte(payloadLen))
	case payloadLen <= 0xFFFF:
		frame = append(frame, 126)
		frame = binary.BigEndian.AppendUint16(frame, uint16(payloadLen))
	default:
		frame = append(frame, 127)
		frame = binary.BigEndian.AppendUint64(frame, uint64(payloadLen))
	}

	return append(frame, payload...)
}

// WriteFrame encodes and writes a frame in one write
func WriteFrame(w io.Writer, op OpCode, payload []byte, fin bool) error {
	if _, err := w.Write(EncodeFrame(op, payload, fin)); err != nil {
		return errors.Wrapf(err, "write %s frame", op)
	}
	return nil
}

package socket

import (
	"bufio"
	"io"
	"net"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

const (
	// BufferSize is the chunk size used for bounded reads
	BufferSize = 1024
	// MaxLineLength caps a single line returned by ReadLine, newline included
	MaxLineLength = 16 * 1024
)

// ErrLineTooLong is returned by ReadLine when no newline arrives within
// MaxLineLength bytes
var ErrLineTooLong = errors.New("line too long")

// Socket wraps one client connection with line and length oriented reads.
//
// Reads go through a buffered reader so bytes read ahead of a request are
// still visible to whoever takes the socket over (e.g. a WebSocket session).
type Socket struct {
	conn      net.Conn
	reader    *bufio.Reader
	closeOnce sync.Once
	closeErr  error
}

// New wraps an established connection
func New(conn net.Conn) *Socket {
	return &Socket{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, BufferSize),
	}
}

// Conn returns the underlying connection
func (s *Socket) Conn() net.Conn {
	return s.conn
}

// Close closes the connection. Calling it more than once is a no-op.
func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// Read implements io.Reader on top of the buffered reader
func (s *Socket) Read(p []byte) (int, error) {
	n, err := s.reader.Read(p)
	if err != nil && err != io.EOF {
		return n, newError(KindRecv, err)
	}
	return n, err
}

// ReadByte reads a single byte
func (s *Socket) ReadByte() (byte, error) {
	b, err := s.reader.ReadByte()
	if err != nil {
		return 0, newError(KindRecv, err)
	}
	return b, nil
}

// ReadLine reads up to the next newline and strips carriage returns.
// Hitting EOF before the newline is an error even if some bytes arrived.
func (s *Socket) ReadLine() (string, error) {
	var line []byte
	for {
		chunk, err := s.reader.ReadSlice('\n')
		if len(line)+len(chunk) > MaxLineLength {
			return "", newError(KindRecv, ErrLineTooLong)
		}
		line = append(line, chunk...)
		if err == nil {
			break
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return "", newError(KindRecv, err)
		}
	}
	text := strings.TrimSuffix(string(line), "\n")
	return strings.ReplaceAll(text, "\r", ""), nil
}

// ReadExactly reads exactly length bytes in chunks of at most BufferSize.
// It returns either all of them or an error. The result grows as data
// arrives, so a large length alone never reserves memory.
func (s *Socket) ReadExactly(length int) ([]byte, error) {
	if length < 0 {
		return nil, newError(KindRecv, errors.Newf("invalid read length %d", length))
	}
	buf := make([]byte, 0, min(length, BufferSize))
	for len(buf) < length {
		start := len(buf)
		chunk := min(BufferSize, length-start)
		buf = slices.Grow(buf, chunk)[:start+chunk]
		n, err := s.reader.Read(buf[start:])
		buf = buf[:start+n]
		if err != nil && len(buf) < length {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, newError(KindRecv, err)
		}
	}
	return buf, nil
}

// Write writes all of p or returns a send error
func (s *Socket) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := s.conn.Write(p[written:])
		written += n
		if err != nil {
			return written, newError(KindSend, err)
		}
	}
	return written, nil
}

// WriteString writes a string fully
func (s *Socket) WriteString(str string) error {
	_, err := s.Write([]byte(str))
	return err
}

// WriteFile copies a file onto the connection. On TCP connections the
// runtime uses sendfile(2) where the platform supports it.
func (s *Socket) WriteFile(f *os.File) error {
	if _, err := io.Copy(s.conn, f); err != nil {
		return newError(KindSend, err)
	}
	return nil
}

// WriteFrom copies a stream onto the connection until EOF
func (s *Socket) WriteFrom(r io.Reader) error {
	if _, err := io.Copy(s.conn, r); err != nil {
		return newError(KindSend, err)
	}
	return nil
}

// PeerName returns the remote host without the port
func (s *Socket) PeerName() (string, error) {
	addr := s.conn.RemoteAddr()
	if addr == nil {
		return "", newError(KindPeerName, errors.New("no remote address"))
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		// net.Pipe and unix sockets have no host:port form
		return addr.String(), nil
	}
	return host, nil
}

// RemoteAddr returns the remote address as reported by the connection
func (s *Socket) RemoteAddr() string {
	if addr := s.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

package websocket

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/muurk/nanohttp"
	"github.com/muurk/nanohttp/socket"
)

// serverFrame is an unmasked frame read back by the test client
type serverFrame struct {
	fin     bool
	op      OpCode
	payload []byte
}

func readServerFrame(t *testing.T, conn net.Conn) serverFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var header [2]byte
	_, err := io.ReadFull(conn, header[:])
	require.NoError(t, err)
	require.Zero(t, header[1]&0x80, "server frames must not be masked")

	length := uint64(header[1] & 0x7F)
	switch length {
	case 126:
		var ext [2]byte
		_, err = io.ReadFull(conn, ext[:])
		require.NoError(t, err)
		length = uint64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		_, err = io.ReadFull(conn, ext[:])
		require.NoError(t, err)
		length = binary.BigEndian.Uint64(ext[:])
	}

	payload := make([]byte, length)
	_, err = io.ReadFull(conn, payload)
	require.NoError(t, err)
	return serverFrame{fin: header[0]&0x80 != 0, op: OpCode(header[0] & 0x0F), payload: payload}
}

type recorder struct {
	texts        chan string
	binaries     chan []byte
	pongs        chan []byte
	connected    chan *Session
	disconnected chan *Session
	maxMessage   int
}

func newRecorder() *recorder {
	return &recorder{
		texts:        make(chan string, 10),
		binaries:     make(chan []byte, 10),
		pongs:        make(chan []byte, 10),
		connected:    make(chan *Session, 1),
		disconnected: make(chan *Session, 1),
	}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		Text:           func(s *Session, text string) { r.texts <- text },
		Binary:         func(s *Session, data []byte) { r.binaries <- data },
		Pong:           func(s *Session, data []byte) { r.pongs <- data },
		Connected:      func(s *Session) { r.connected <- s },
		Disconnected:   func(s *Session) { r.disconnected <- s },
		Logger:         zap.NewNop(),
		MaxMessageSize: r.maxMessage,
	}
}

// startSession runs a session on one end of a pipe and returns the other end
func startSession(t *testing.T, rec *recorder) net.Conn {
	t.Helper()
	server, client := net.Pipe()
	sock := socket.New(server)
	go newSession(sock, zap.NewNop()).run(rec.callbacks())
	t.Cleanup(func() {
		_ = client.Close()
		_ = sock.Close()
	})

	select {
	case <-rec.connected:
	case <-time.After(5 * time.Second):
		t.Fatal("connected callback not called")
	}
	return client
}

func send(t *testing.T, conn net.Conn, frame []byte) {
	t.Helper()
	require.NoError(t, conn.SetWriteDeadline(time.Now().Add(5*time.Second)))
	_, err := conn.Write(frame)
	require.NoError(t, err)
}

func waitDisconnected(t *testing.T, rec *recorder) {
	t.Helper()
	select {
	case <-rec.disconnected:
	case <-time.After(5 * time.Second):
		t.Fatal("disconnected callback not called")
	}
}

func TestSessionTextAndBinary(t *testing.T) {
	rec := newRecorder()
	conn := startSession(t, rec)

	send(t, conn, clientFrame(true, byte(OpText), []byte("hello")))
	require.Equal(t, "hello", <-rec.texts)

	send(t, conn, clientFrame(true, byte(OpBinary), []byte{1, 2, 3}))
	require.Equal(t, []byte{1, 2, 3}, <-rec.binaries)

	send(t, conn, clientFrame(true, byte(OpClose), nil))
	closeFrame := readServerFrame(t, conn)
	require.Equal(t, OpClose, closeFrame.op)
	waitDisconnected(t, rec)
}

func TestSessionFragmentedMessage(t *testing.T) {
	rec := newRecorder()
	conn := startSession(t, rec)

	send(t, conn, clientFrame(false, byte(OpText), []byte("Hel")))
	send(t, conn, clientFrame(false, byte(OpContinuation), []byte("lo, ")))
	// control frames may be interleaved with fragments
	send(t, conn, clientFrame(true, byte(OpPing), []byte("p")))
	pong := readServerFrame(t, conn)
	require.Equal(t, OpPong, pong.op)
	send(t, conn, clientFrame(true, byte(OpContinuation), []byte("world")))

	select {
	case text := <-rec.texts:
		require.Equal(t, "Hello, world", text)
	case <-time.After(5 * time.Second):
		t.Fatal("fragmented message not delivered")
	}
	require.Empty(t, rec.texts)

	send(t, conn, clientFrame(true, byte(OpClose), nil))
	require.Equal(t, OpClose, readServerFrame(t, conn).op)
	waitDisconnected(t, rec)
}

func TestSessionPingPong(t *testing.T) {
	rec := newRecorder()
	conn := startSession(t, rec)

	send(t, conn, clientFrame(true, byte(OpPing), []byte("are you there")))
	pong := readServerFrame(t, conn)
	require.True(t, pong.fin)
	require.Equal(t, OpPong, pong.op)
	require.Equal(t, "are you there", string(pong.payload))

	send(t, conn, clientFrame(true, byte(OpPong), []byte("late")))
	require.Equal(t, []byte("late"), <-rec.pongs)
}

func TestSessionProtocolViolations(t *testing.T) {
	tests := []struct {
		name       string
		maxMessage int
		frames     [][]byte
	}{
		{"invalid utf8", 0, [][]byte{clientFrame(true, byte(OpText), []byte{0xff, 0xfe})}},
		{"continuation without start", 0, [][]byte{clientFrame(true, byte(OpContinuation), []byte("x"))}},
		{"new message during fragment", 0, [][]byte{
			clientFrame(false, byte(OpText), []byte("a")),
			clientFrame(true, byte(OpText), []byte("b")),
		}},
		{"unmasked frame", 0, [][]byte{{0x81, 0x01, 'x'}}},
		{"oversized ping", 0, [][]byte{clientFrame(true, byte(OpPing), make([]byte, 126))}},
		{"unknown opcode", 0, [][]byte{clientFrame(true, 0x3, nil)}},
		{"fragmented message over cap", 8, [][]byte{
			clientFrame(false, byte(OpBinary), []byte("12345")),
			clientFrame(false, byte(OpContinuation), []byte("67890")),
		}},
		{"first fragment over cap", 4, [][]byte{clientFrame(false, byte(OpBinary), []byte("12345"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecorder()
			rec.maxMessage = tt.maxMessage
			conn := startSession(t, rec)

			for _, frame := range tt.frames {
				send(t, conn, frame)
			}
			closeFrame := readServerFrame(t, conn)
			require.Equal(t, OpClose, closeFrame.op)
			waitDisconnected(t, rec)
			require.Empty(t, rec.texts)
			require.Empty(t, rec.binaries)
		})
	}
}

func TestSessionPeerDisconnect(t *testing.T) {
	rec := newRecorder()
	conn := startSession(t, rec)

	require.NoError(t, conn.Close())
	waitDisconnected(t, rec)
}

func TestSessionWrites(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	session := newSession(socket.New(server), nil)
	require.NotEqual(t, session.ID(), newSession(socket.New(server), nil).ID())

	go func() {
		_ = session.WriteText("hi")
		_ = session.WriteBinary([]byte{9})
		_ = session.WriteFrame(OpText, []byte("part"), false)
		_ = session.WriteClose()
	}()

	frame := readServerFrame(t, client)
	require.Equal(t, serverFrame{fin: true, op: OpText, payload: []byte("hi")}, frame)
	frame = readServerFrame(t, client)
	require.Equal(t, serverFrame{fin: true, op: OpBinary, payload: []byte{9}}, frame)
	frame = readServerFrame(t, client)
	require.Equal(t, serverFrame{fin: false, op: OpText, payload: []byte("part")}, frame)
	frame = readServerFrame(t, client)
	require.Equal(t, OpClose, frame.op)
}

func TestValidateUpgrade(t *testing.T) {
	valid := func() *nanohttp.Request {
		req := nanohttp.NewRequest("GET", "/ws")
		req.SetHeader("Upgrade", "websocket")
		req.SetHeader("Connection", "keep-alive, Upgrade")
		req.SetHeader("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
		return req
	}

	key, err := ValidateUpgrade(valid())
	require.NoError(t, err)
	require.Equal(t, "dGhlIHNhbXBsZSBub25jZQ==", key)

	req := valid()
	req.SetHeader("Upgrade", "h2c")
	_, err = ValidateUpgrade(req)
	require.EqualError(t, err, "Invalid value of 'Upgrade' header: h2c")

	req = valid()
	req.SetHeader("Connection", "close")
	_, err = ValidateUpgrade(req)
	require.EqualError(t, err, "Invalid value of 'Connection' header: close")

	req = valid()
	req.RemoveHeader("Sec-WebSocket-Key")
	_, err = ValidateUpgrade(req)
	require.Error(t, err)
}

func TestHandlerResponses(t *testing.T) {
	handler := Handler(Callbacks{Logger: zap.NewNop()})

	bad := nanohttp.NewRequest("GET", "/ws")
	resp := handler(bad)
	require.Equal(t, 400, resp.StatusCode)
	require.Nil(t, resp.Upgrade())

	good := nanohttp.NewRequest("GET", "/ws")
	good.SetHeader("Upgrade", "websocket")
	good.SetHeader("Connection", "Upgrade")
	good.SetHeader("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	resp = handler(good)
	require.Equal(t, 101, resp.StatusCode)
	require.NotNil(t, resp.Upgrade())

	accept, _ := resp.Header("sec-websocket-accept")
	require.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", accept)
	upgrade, _ := resp.Header("upgrade")
	require.Equal(t, "WebSocket", upgrade)
}

package server

import (
	"strconv"
	"time"

	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"

	"github.com/muurk/nanohttp"
	"github.com/muurk/nanohttp/socket"
)

// Connection is one request read from a client socket, waiting for its
// response
type Connection struct {
	server  *Server
	sock    *socket.Socket
	parser  *nanohttp.Parser
	request *nanohttp.Request
	started time.Time
}

// readConnection reads the next request from sock. A request that cannot be
// parsed closes the connection without a response and returns nil.
func (s *Server) readConnection(sock *socket.Socket, parser *nanohttp.Parser) *Connection {
	req, err := parser.ReadRequest()
	if err != nil {
		s.logger.Debug("Failed to read request",
			zap.String("remote_addr", sock.RemoteAddr()),
			zap.Error(err),
		)
		s.drop(sock)
		return nil
	}

	if address, err := sock.PeerName(); err == nil {
		req.Address = address
	}
	return &Connection{
		server:  s,
		sock:    sock,
		parser:  parser,
		request: req,
		started: time.Now(),
	}
}

// Request returns the request awaiting a response
func (c *Connection) Request() *nanohttp.Request {
	return c.request
}

// Send writes the response and returns the connection for the next request
// on the same socket, or nil once the socket is closed or handed to an
// upgrade callback
func (c *Connection) Send(resp *nanohttp.Response) *Connection {
	s := c.server
	if resp == nil {
		resp = nanohttp.InternalServerError(nil)
	}
	if !s.Operating() {
		s.drop(c.sock)
		return nil
	}

	// the peer can only find the end of a body of known length
	keepAlive := c.request.SupportsKeepAlive() && resp.ContentLength() >= 0

	if err := c.respond(resp, keepAlive); err != nil {
		s.logger.Warn("Failed to send response",
			zap.String("remote_addr", c.sock.RemoteAddr()),
			zap.String("path", c.request.Path),
			zap.Error(err),
		)
		s.drop(c.sock)
		return nil
	}
	s.cfg.OnRequest(c.request, resp, time.Since(c.started))

	if upgrade := resp.Upgrade(); upgrade != nil {
		upgrade(c.sock)
		s.drop(c.sock)
		return nil
	}

	if !keepAlive || !s.Operating() {
		s.drop(c.sock)
		return nil
	}
	return s.readConnection(c.sock, c.parser)
}

// respond writes the header block in a single write, then the body
func (c *Connection) respond(resp *nanohttp.Response, keepAlive bool) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(resp.StatusLine())
	_, _ = buf.WriteString("\r\n")
	if length := resp.ContentLength(); length >= 0 {
		_, _ = buf.WriteString("Content-Length: ")
		_, _ = buf.WriteString(strconv.Itoa(length))
		_, _ = buf.WriteString("\r\n")
	}
	if keepAlive {
		_, _ = buf.WriteString("Connection: keep-alive\r\n")
	}
	for _, field := range resp.Headers() {
		_, _ = buf.WriteString(field.Name)
		_, _ = buf.WriteString(": ")
		_, _ = buf.WriteString(field.Value)
		_, _ = buf.WriteString("\r\n")
	}
	_, _ = buf.WriteString("\r\n")

	if _, err := c.sock.Write(buf.B); err != nil {
		return err
	}
	if resp.Upgrade() != nil {
		return nil
	}
	return resp.Body().WriteTo(c.sock)
}

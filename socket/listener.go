package socket

import (
	"context"
	"net"
	"strconv"

	"github.com/cockroachdb/errors"
)

// ListenConfig describes the listening socket to create
type ListenConfig struct {
	// Port to bind. Zero picks an ephemeral port.
	Port uint16
	// ForceIPv4 binds an AF_INET socket instead of a dual-stack AF_INET6 one
	ForceIPv4 bool
	// Address to bind (empty = all interfaces of the selected family)
	Address string
}

// Listener is a bound, listening TCP socket
type Listener struct {
	ln   net.Listener
	ipv4 bool
}

// Listen creates, binds and listens with SO_REUSEADDR enabled
func Listen(cfg ListenConfig) (*Listener, error) {
	network := "tcp"
	if cfg.ForceIPv4 {
		network = "tcp4"
	}
	lc := net.ListenConfig{Control: reuseAddrControl}
	addr := net.JoinHostPort(cfg.Address, strconv.Itoa(int(cfg.Port)))

	ln, err := lc.Listen(context.Background(), network, addr)
	if err != nil {
		return nil, classifyListenError(err)
	}

	return &Listener{ln: ln, ipv4: cfg.ForceIPv4}, nil
}

// Accept blocks until a client connects
func (l *Listener) Accept() (*Socket, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, newError(KindAccept, err)
	}
	return New(conn), nil
}

// Close stops listening. Pending Accept calls return an error.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Addr returns the bound address
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Port returns the bound port, which differs from the requested one when
// the requested one was zero
func (l *Listener) Port() (int, error) {
	tcpAddr, ok := l.ln.Addr().(*net.TCPAddr)
	if !ok {
		return 0, newError(KindSockName, errors.Newf("unexpected address type %T", l.ln.Addr()))
	}
	return tcpAddr.Port, nil
}

// IsIPv4 reports whether the socket was bound as AF_INET
func (l *Listener) IsIPv4() bool {
	return l.ipv4
}

// IsClosed reports whether err is the result of using a closed listener or connection
func IsClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

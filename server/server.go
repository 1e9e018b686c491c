package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/nanohttp"
	"github.com/muurk/nanohttp/internal/logging"
	"github.com/muurk/nanohttp/router"
	"github.com/muurk/nanohttp/socket"
)

// State is the lifecycle state of a Server
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyStarted is returned by Start on a server that left StateStarting
	ErrAlreadyStarted = errors.New("server already started")
	// ErrNotListening is returned by Port and IsIPv4 before Start
	ErrNotListening = errors.New("server is not listening")
)

// Server accepts HTTP/1.1 connections and dispatches requests through
// middleware and a router
type Server struct {
	cfg    Config
	logger *zap.Logger
	routes router.Matcher

	mu         sync.RWMutex
	middleware []nanohttp.Middleware
	notFound   nanohttp.Handler

	state     atomic.Int32
	lifecycle sync.Mutex
	listener  *socket.Listener
	group     *errgroup.Group
	loopDone  chan struct{}

	socketsMu sync.Mutex
	sockets   map[*socket.Socket]struct{}
}

// New creates a server in StateStarting
func New(cfg Config) *Server {
	cfg.setDefaults()
	return &Server{
		cfg:     cfg,
		logger:  cfg.Logger,
		routes:  cfg.Router,
		sockets: make(map[*socket.Socket]struct{}),
	}
}

// Handle registers a handler for a method and path pattern
func (s *Server) Handle(method, path string, handler nanohttp.Handler) {
	s.routes.Register(method, path, handler)
}

// HandleAny registers a handler for every method
func (s *Server) HandleAny(path string, handler nanohttp.Handler) {
	s.routes.Register(router.AnyMethod, path, handler)
}

// Use appends middleware. They run in order before routing; the first one
// returning a response ends dispatch.
func (s *Server) Use(middleware ...nanohttp.Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middleware = append(s.middleware, middleware...)
}

// Mount copies the routes of another router below prefix
func (s *Server) Mount(prefix string, other router.Matcher) error {
	return s.routes.Merge(other, prefix)
}

// NotFound sets the handler used when no route matches
func (s *Server) NotFound(handler nanohttp.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notFound = handler
}

// Routes lists the registered route patterns
func (s *Server) Routes() []string {
	return s.routes.Routes()
}

// Router returns the routing table
func (s *Server) Router() router.Matcher {
	return s.routes
}

// Dispatch resolves a request to a response: middleware first, then the
// router, then the not-found handler, then a plain 404
func (s *Server) Dispatch(req *nanohttp.Request) *nanohttp.Response {
	s.mu.RLock()
	middleware := s.middleware
	notFound := s.notFound
	s.mu.RUnlock()

	for _, mw := range middleware {
		if resp := mw(req); resp != nil {
			return resp
		}
	}

	if params, handler, ok := s.routes.Route(req.Method, req.RawPath); ok {
		if req.Params == nil {
			req.Params = make(map[string]string, len(params))
		}
		for name, value := range params {
			req.Params[name] = value
		}
		return handler(req)
	}

	if notFound != nil {
		return notFound(req)
	}
	return nanohttp.NotFound(nil)
}

// Start binds the listening socket and starts accepting connections. With
// Foreground set it returns only after Stop.
func (s *Server) Start(opts StartOptions) error {
	s.lifecycle.Lock()
	if State(s.state.Load()) != StateStarting {
		s.lifecycle.Unlock()
		return ErrAlreadyStarted
	}

	address := s.cfg.ListenAddressIPv6
	if opts.ForceIPv4 {
		address = s.cfg.ListenAddressIPv4
	}
	listener, err := socket.Listen(socket.ListenConfig{
		Port:      opts.Port,
		ForceIPv4: opts.ForceIPv4,
		Address:   address,
	})
	if err != nil {
		s.lifecycle.Unlock()
		return errors.Wrap(err, "failed to start server")
	}
	port, err := listener.Port()
	if err != nil {
		_ = listener.Close()
		s.lifecycle.Unlock()
		return errors.Wrap(err, "failed to start server")
	}

	group := new(errgroup.Group)
	group.SetLimit(s.cfg.MaxWorkers)

	s.listener = listener
	s.group = group
	s.loopDone = make(chan struct{})
	s.state.Store(int32(StateRunning))
	s.lifecycle.Unlock()

	s.logger.Info("Server listening",
		zap.Int("port", port),
		zap.Bool("ipv4", opts.ForceIPv4),
		zap.Bool("inline", opts.Inline),
		zap.Int("max_workers", s.cfg.MaxWorkers),
	)
	if s.cfg.OnStart != nil {
		s.cfg.OnStart(port)
	}

	if opts.Foreground {
		s.acceptLoop(listener, group, opts.Inline, s.loopDone)
		return nil
	}
	go s.acceptLoop(listener, group, opts.Inline, s.loopDone)
	return nil
}

func (s *Server) acceptLoop(listener *socket.Listener, group *errgroup.Group, inline bool, done chan struct{}) {
	defer close(done)

	for s.Operating() {
		sock, err := listener.Accept()
		if err != nil {
			if !s.Operating() || socket.IsClosed(err) {
				return
			}
			s.logger.Error("Failed to accept connection", zap.Error(err))
			continue
		}

		s.remember(sock)
		// Stop may have run between Accept and remember
		if !s.Operating() {
			s.drop(sock)
			return
		}

		if inline {
			s.serve(sock)
			continue
		}
		group.Go(func() error {
			s.serve(sock)
			return nil
		})
	}
}

// serve handles every request of one connection
func (s *Server) serve(sock *socket.Socket) {
	remote := sock.RemoteAddr()
	logging.LogConnection(s.logger, remote, "connection_accepted")
	if s.cfg.OnConnection != nil {
		s.cfg.OnConnection(remote)
	}

	parser := nanohttp.NewParser(sock)
	parser.MaxBodySize = s.cfg.MaxBodySize
	parser.MaxHeaders = s.cfg.MaxHeaders

	conn := s.readConnection(sock, parser)
	for conn != nil {
		conn = conn.Send(s.Dispatch(conn.request))
	}
}

// Stop closes the listening socket and every open connection. Blocked reads
// and writes on those connections fail and their goroutines exit.
func (s *Server) Stop() {
	s.lifecycle.Lock()
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		s.lifecycle.Unlock()
		return
	}
	listener := s.listener
	s.lifecycle.Unlock()

	s.logger.Info("Stopping server")
	if err := listener.Close(); err != nil {
		s.logger.Error("Error closing listener", zap.Error(err))
	}

	s.socketsMu.Lock()
	open := make([]*socket.Socket, 0, len(s.sockets))
	for sock := range s.sockets {
		open = append(open, sock)
	}
	s.socketsMu.Unlock()

	for _, sock := range open {
		logging.LogConnection(s.logger, sock.RemoteAddr(), "connection_closed_by_stop")
		_ = sock.Close()
	}

	s.state.Store(int32(StateStopped))
	if s.cfg.OnStop != nil {
		s.cfg.OnStop()
	}
}

// Shutdown stops the server and waits for the accept loop and every
// connection goroutine to exit
func (s *Server) Shutdown(ctx context.Context) error {
	s.Stop()

	s.lifecycle.Lock()
	loopDone, group := s.loopDone, s.group
	s.lifecycle.Unlock()
	if loopDone == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		<-loopDone
		_ = group.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("All connections closed")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Shutdown interrupted before connections closed")
		return errors.Wrap(ctx.Err(), "shutdown")
	case <-time.After(10 * time.Second):
		s.logger.Warn("Shutdown timeout after 10 seconds")
		return errors.New("shutdown timed out")
	}
}

// Port returns the port the server listens on
func (s *Server) Port() (int, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.listener == nil {
		return 0, ErrNotListening
	}
	return s.listener.Port()
}

// IsIPv4 reports whether the server listens on an AF_INET socket
func (s *Server) IsIPv4() (bool, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.listener == nil {
		return false, ErrNotListening
	}
	return s.listener.IsIPv4(), nil
}

// OpenConnections returns the number of connections not yet closed
func (s *Server) OpenConnections() int {
	s.socketsMu.Lock()
	defer s.socketsMu.Unlock()
	return len(s.sockets)
}

// State returns the lifecycle state
func (s *Server) State() State {
	return State(s.state.Load())
}

// Operating reports whether the server accepts and serves connections
func (s *Server) Operating() bool {
	return s.State() == StateRunning
}

func (s *Server) remember(sock *socket.Socket) {
	s.socketsMu.Lock()
	defer s.socketsMu.Unlock()
	s.sockets[sock] = struct{}{}
}

// drop closes a connection and removes it from the open set
func (s *Server) drop(sock *socket.Socket) {
	s.socketsMu.Lock()
	delete(s.sockets, sock)
	s.socketsMu.Unlock()

	_ = sock.Close()
	logging.LogConnection(s.logger, sock.RemoteAddr(), "connection_closed")
}

package server

import (
	"time"

	"go.uber.org/zap"

	"github.com/muurk/nanohttp"
	"github.com/muurk/nanohttp/internal/logging"
	"github.com/muurk/nanohttp/router"
)

// DefaultMaxWorkers bounds the connection goroutines when Config.MaxWorkers is zero
const DefaultMaxWorkers = 256

// Config holds the server configuration and lifecycle hooks. Every field is
// optional.
type Config struct {
	// Logger receives server logs. Defaults to the process-wide logger.
	Logger *zap.Logger

	// MaxWorkers bounds the connections handled concurrently when not
	// running inline. Accepting blocks while the pool is full.
	MaxWorkers int

	// ListenAddressIPv4 is the bind address used with StartOptions.ForceIPv4
	ListenAddressIPv4 string
	// ListenAddressIPv6 is the bind address of the dual-stack socket
	ListenAddressIPv6 string

	// MaxBodySize caps the Content-Length of a request, in bytes. Larger
	// requests close the connection. Defaults to nanohttp.DefaultMaxBodySize.
	MaxBodySize int
	// MaxHeaders caps the header lines of a request. Defaults to
	// nanohttp.DefaultMaxHeaders.
	MaxHeaders int

	// Router holds the routes. Defaults to router.New().
	Router router.Matcher

	OnStart      func(port int)
	OnStop       func()
	OnConnection func(remoteAddr string)
	// OnRequest is called after every response was sent. Defaults to an
	// info log line per request.
	OnRequest func(req *nanohttp.Request, resp *nanohttp.Response, elapsed time.Duration)
}

// StartOptions select how Start listens and schedules connections
type StartOptions struct {
	// Port to listen on. Zero picks an ephemeral port, see Server.Port.
	Port uint16
	// ForceIPv4 listens on an AF_INET socket instead of a dual-stack one
	ForceIPv4 bool
	// Inline handles connections on the accept goroutine, one at a time
	Inline bool
	// Foreground runs the accept loop on the calling goroutine until Stop
	Foreground bool
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = logging.GetLogger()
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = DefaultMaxWorkers
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = nanohttp.DefaultMaxBodySize
	}
	if c.MaxHeaders <= 0 {
		c.MaxHeaders = nanohttp.DefaultMaxHeaders
	}
	if c.Router == nil {
		c.Router = router.New()
	}
	if c.OnRequest == nil {
		logger := c.Logger
		c.OnRequest = func(req *nanohttp.Request, resp *nanohttp.Response, elapsed time.Duration) {
			logging.LogRequest(logger, req.Address, req.Method, req.Path, resp.StatusCode, elapsed)
		}
	}
}

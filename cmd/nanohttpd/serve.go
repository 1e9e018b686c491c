package main

import (
	"context"
	"fmt"
	"html"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/nanohttp"
	"github.com/muurk/nanohttp/internal/discovery"
	"github.com/muurk/nanohttp/internal/logging"
	"github.com/muurk/nanohttp/internal/ui"
	"github.com/muurk/nanohttp/internal/version"
	"github.com/muurk/nanohttp/metrics"
	"github.com/muurk/nanohttp/middleware"
	"github.com/muurk/nanohttp/server"
)

// Serve command and flags
var (
	port          uint16
	forceIPv4     bool
	address       string
	logLevel      string
	inline        bool
	workers       int
	advertise     bool
	instanceName  string
	rateLimit     float64
	rateBurst     int
	enableMetrics bool
	staticDir     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the demo server",
	Long: `Start the nanohttpd demo server and block until interrupted.

Connections are served by a bounded pool of goroutines unless --inline is
given, in which case they are handled one at a time on the accept loop.`,
	Example: `  # Serve on port 8080 on all interfaces
  nanohttpd serve --port 8080

  # IPv4 only, debug logging with frame dumps
  nanohttpd serve --ipv4 --log-level debug

  # Announce over mDNS and expose Prometheus metrics
  nanohttpd serve --mdns --metrics

  # Limit every client to 2 requests per second
  nanohttpd serve --rate 2 --burst 4`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Uint16Var(&port, "port", 8080, "Port to listen on (0 picks a free port)")
	serveCmd.Flags().BoolVar(&forceIPv4, "ipv4", false, "Listen on IPv4 only")
	serveCmd.Flags().StringVar(&address, "address", "", "Address to bind (empty = all interfaces)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&inline, "inline", false, "Handle connections on the accept loop")
	serveCmd.Flags().IntVar(&workers, "workers", server.DefaultMaxWorkers, "Maximum connections served at once")
	serveCmd.Flags().BoolVar(&advertise, "mdns", false, "Announce the server over mDNS")
	serveCmd.Flags().StringVar(&instanceName, "name", defaultInstanceName(), "mDNS instance name")
	serveCmd.Flags().Float64Var(&rateLimit, "rate", 0, "Requests per second per client (0 = unlimited)")
	serveCmd.Flags().IntVar(&rateBurst, "burst", 10, "Burst size for --rate")
	serveCmd.Flags().BoolVar(&enableMetrics, "metrics", false, "Serve Prometheus metrics at /metrics")
	serveCmd.Flags().StringVar(&staticDir, "static", "", "Directory served below /static")
}

func defaultInstanceName() string {
	host, err := os.Hostname()
	if err != nil {
		return "nanohttpd"
	}
	return "nanohttpd on " + host
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(logLevel)
	if err != nil {
		return err
	}
	logging.SetLogger(logger)
	defer logging.Sync()

	if staticDir != "" {
		info, err := os.Stat(staticDir)
		if err != nil {
			return errors.Wrap(err, "cannot access static directory")
		}
		if !info.IsDir() {
			return errors.Newf("static path is not a directory: %s", staticDir)
		}
	}

	styled := ui.IsTerminal(os.Stdout)
	cfg := server.Config{
		Logger:            logger,
		MaxWorkers:        workers,
		ListenAddressIPv4: address,
		ListenAddressIPv6: address,
		Router:            demoRoutes(logger, staticDir),
		OnStart: func(port int) {
			params := map[string]string{
				"Port":    strconv.Itoa(port),
				"Address": displayAddress(),
				"Workers": workerSummary(),
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.NewBanner("nanohttpd", version.ServerHeader(), params, styled).Render())
		},
	}

	var srv *server.Server
	var collector *metrics.Collector
	if enableMetrics {
		collector = metrics.New(func() int { return srv.OpenConnections() })
		cfg.OnRequest = func(req *nanohttp.Request, resp *nanohttp.Response, elapsed time.Duration) {
			logging.LogRequest(logger, req.Address, req.Method, req.Path, resp.StatusCode, elapsed)
			collector.Observe(req, resp, elapsed)
		}
	}

	srv = server.New(cfg)
	if collector != nil {
		srv.Handle("GET", "/metrics", collector.Handler())
	}
	if rateLimit > 0 {
		srv.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RPS:    rateLimit,
			Burst:  rateBurst,
			Logger: logger,
		}))
	}
	srv.NotFound(func(req *nanohttp.Request) *nanohttp.Response {
		return nanohttp.NotFound(nanohttp.HTMLDocument(
			"<h1>Not Found</h1><p>" + html.EscapeString(req.Path) + "</p>"))
	})

	if err := srv.Start(server.StartOptions{
		Port:      port,
		ForceIPv4: forceIPv4,
		Inline:    inline,
	}); err != nil {
		return err
	}

	if advertise {
		boundPort, err := srv.Port()
		if err != nil {
			return err
		}
		ad, err := discovery.Advertise(instanceName, boundPort)
		if err != nil {
			logger.Warn("mDNS announcement failed", zap.Error(err))
		} else {
			logger.Info("Announced over mDNS", zap.String("name", instanceName))
			defer ad.Shutdown()
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func displayAddress() string {
	switch {
	case address != "":
		return address
	case forceIPv4:
		return "0.0.0.0"
	default:
		return "[::]"
	}
}

func workerSummary() string {
	if inline {
		return "inline"
	}
	return strconv.Itoa(workers)
}

// Package server runs the nanohttp accept loop and per-connection dispatch.
//
// A Server moves through starting, running, stopping and stopped exactly
// once. While running it accepts connections and serves each one either on
// the accept goroutine (StartOptions.Inline) or on a worker drawn from a
// pool bounded by Config.MaxWorkers.
//
// # Dispatch
//
// Every request runs the middleware chain in registration order; the first
// middleware that returns a response ends dispatch. Otherwise the router is
// consulted with the raw request path, then the not-found handler, then a
// default 404.
//
// # Connections
//
// A request that fails to parse closes the connection without a response.
// After a response the connection stays open only when the client sent
// "Connection: keep-alive" and the body length is known; streamed bodies
// close the connection after they are written. A 101 response hands the
// socket to its upgrade callback instead.
//
// Requests on one connection are strictly sequential. Stop closes the
// listener and every open socket, which unblocks their goroutines.
//
// # Usage Example
//
//	srv := server.New(server.Config{Logger: logger})
//	srv.Handle("GET", "/ping", func(*nanohttp.Request) *nanohttp.Response {
//	    return nanohttp.OK(nanohttp.TextBody("pong!"))
//	})
//	if err := srv.Start(server.StartOptions{Port: 8080}); err != nil {
//	    return err
//	}
//	defer srv.Shutdown(context.Background())
package server

// Package logging provides structured logging for nanohttp.
//
// This package wraps the zap logger with a process-wide default and helpers
// for the events the server and WebSocket sessions emit. Library types take a
// *zap.Logger through their configuration and fall back to GetLogger, which
// stays a no-op logger until Initialize is called.
//
// # Log Levels
//
//   - Debug: connection lifecycle, frame dumps, raw bytes
//   - Info: served requests, server start and stop
//   - Warn: dropped connections, protocol violations by clients
//   - Error: listener failures, response write failures
//
// # Configuration
//
// Initialize logging at process startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// An empty level reads NANOHTTP_LOG_LEVEL. When both are empty nothing is
// logged, which keeps embedded servers quiet unless asked otherwise.
//
// # Helpers
//
//	logging.LogConnection(l, remoteAddr, "connection_accepted")
//	logging.LogRequest(l, remoteAddr, "GET", "/ping", 200, elapsed)
//	logging.LogWebSocketFrame(l, remoteAddr, "received", "text", payload)
package logging

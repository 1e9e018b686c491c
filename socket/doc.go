// Package socket provides the byte-level transport used by the HTTP server.
//
// A Listener binds a TCP port (IPv4 or dual-stack IPv6) with SO_REUSEADDR and
// yields one Socket per accepted client. A Socket offers the two read shapes
// the request parser needs, a CR-stripping line read capped at MaxLineLength
// and an exact-length read that works in BufferSize chunks, plus full writes
// of bytes, files and streams.
//
// # Errors
//
// Every failure is an *Error whose Kind names the step that failed (create,
// bind, listen, accept, send, receive, peer name, socket name) and whose
// wrapped error carries the OS description:
//
//	sock, err := ln.Accept()
//	if socket.IsKind(err, socket.KindAccept) {
//	    // listener closed or accept(2) failed
//	}
//
// # Broken pipes
//
// Writes to a peer that has gone away return EPIPE wrapped in a KindSend
// error. The Go runtime does not deliver SIGPIPE for socket descriptors, so no
// signal handling is required by callers.
package socket

// Package websocket implements the server side of RFC 6455 on top of the
// nanohttp server.
//
// Handler validates the opening handshake and answers with a 101 response
// whose upgrade callback runs a Session on the raw socket:
//
//	srv.Handle("GET", "/echo", websocket.Handler(websocket.Callbacks{
//	    Text: func(s *websocket.Session, text string) {
//	        _ = s.WriteText(text)
//	    },
//	}))
//
// # Frames
//
// ReadFrame decodes client frames, which must be masked, must leave the
// reserved bits clear and must not fragment control frames. Control frames
// carry at most 125 bytes. EncodeFrame produces unmasked server frames using
// the 7, 16 or 64 bit length encoding.
//
// # Sessions
//
// The read loop answers pings with pongs, joins fragmented messages and
// delivers text (validated as UTF-8) and binary messages to the callbacks.
// When the peer sends a close frame, violates the protocol or the connection
// fails, the session sends a close frame, calls Disconnected and returns.
// Subprotocols and extensions are not negotiated.
package websocket

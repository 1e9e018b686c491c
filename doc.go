// Package nanohttp holds the HTTP/1.1 message model of the server: the
// request parser, Request and Response, response bodies and the handler and
// middleware contracts.
//
// # Parsing
//
// A Parser reads one request per ReadRequest call from a Source, normally a
// *socket.Socket:
//
//	parser := nanohttp.NewParser(sock)
//	req, err := parser.ReadRequest()
//	if errors.Is(err, nanohttp.ErrInvalidStatusLine) {
//	    // close the connection, no response is sent
//	}
//
// Header names are case-insensitive and the last occurrence of a header wins.
// Only Content-Length framed bodies are read; chunked transfer encoding is not
// supported. Form bodies are decoded on demand with URLEncodedForm and
// MultiPartFormData.
//
// # Responses
//
// Responses are built from a status shortcut and a body:
//
//	return nanohttp.OK(nanohttp.JSONBody(payload))
//	return nanohttp.NotFound(nanohttp.TextBody("no such user"))
//
// Bodies with a known length (text, HTML, JSON, data, regular files) allow the
// connection to stay open. Stream bodies have no length, so the server closes
// the connection after sending them. SwitchProtocols hands the socket to a
// callback after the 101 response, which is how WebSocket sessions start.
//
// # net/http interop
//
// StdHandler runs a net/http handler against a buffered writer and converts
// the result, which allows serving handlers such as promhttp.
package nanohttp

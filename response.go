package nanohttp

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/muurk/nanohttp/internal/version"
	"github.com/muurk/nanohttp/socket"
)

// HeaderField is one response header line
type HeaderField struct {
	Name  string
	Value string
}

// UpgradeFunc takes over the raw socket after a 101 response was sent
type UpgradeFunc func(sock *socket.Socket)

// Response is what a handler returns. Exactly one body is attached; a nil
// body is treated as empty.
type Response struct {
	StatusCode int
	// Reason overrides the standard reason phrase when non-empty
	Reason string

	headers map[string]HeaderField
	body    Body
	upgrade UpgradeFunc
}

// NewResponse creates a response with the given status and body
func NewResponse(statusCode int, body Body) *Response {
	if body == nil {
		body = EmptyBody()
	}
	r := &Response{
		StatusCode: statusCode,
		headers:    make(map[string]HeaderField),
		body:       body,
	}
	r.SetHeader("Server", version.ServerHeader())
	return r
}

// ReasonPhrase returns the override or the standard phrase for the code
func (r *Response) ReasonPhrase() string {
	if r.Reason != "" {
		return r.Reason
	}
	if text := http.StatusText(r.StatusCode); text != "" {
		return text
	}
	return "Unknown"
}

// StatusLine returns the first line of the response without CRLF
func (r *Response) StatusLine() string {
	return fmt.Sprintf("HTTP/1.1 %d %s", r.StatusCode, r.ReasonPhrase())
}

// SetHeader sets a header. Lookup is case-insensitive; the last spelling wins.
func (r *Response) SetHeader(name, value string) *Response {
	r.headers[strings.ToLower(name)] = HeaderField{Name: name, Value: value}
	return r
}

// Header returns a header value
func (r *Response) Header(name string) (string, bool) {
	field, ok := r.headers[strings.ToLower(name)]
	return field.Value, ok
}

// Headers returns every header to send, sorted by name. Content-Type comes
// from the body unless it was set explicitly. Content-Length and Connection
// are decided by the connection and are not included.
func (r *Response) Headers() []HeaderField {
	fields := make([]HeaderField, 0, len(r.headers)+1)
	for key, field := range r.headers {
		if key == "content-length" || (key == "connection" && r.upgrade == nil) {
			continue
		}
		fields = append(fields, field)
	}
	if _, ok := r.headers["content-type"]; !ok {
		if contentType := r.body.ContentType(); contentType != "" {
			fields = append(fields, HeaderField{Name: "Content-Type", Value: contentType})
		}
	}
	sort.Slice(fields, func(i, j int) bool {
		return strings.ToLower(fields[i].Name) < strings.ToLower(fields[j].Name)
	})
	return fields
}

// Body returns the attached body
func (r *Response) Body() Body {
	return r.body
}

// ContentLength is the body length, or -1 when it is unknown. A protocol
// switch has no framed body and always reports -1.
func (r *Response) ContentLength() int {
	if r.upgrade != nil {
		return -1
	}
	return r.body.Length()
}

// Upgrade returns the socket handler of a protocol switch, or nil
func (r *Response) Upgrade() UpgradeFunc {
	return r.upgrade
}

// SwitchProtocols answers 101 and hands the socket to upgrade once the
// headers are sent
func SwitchProtocols(headers map[string]string, upgrade UpgradeFunc) *Response {
	r := NewResponse(http.StatusSwitchingProtocols, nil)
	for name, value := range headers {
		r.SetHeader(name, value)
	}
	r.upgrade = upgrade
	return r
}

// OK answers 200
func OK(body Body) *Response {
	return NewResponse(http.StatusOK, body)
}

// Created answers 201
func Created(body Body) *Response {
	return NewResponse(http.StatusCreated, body)
}

// Accepted answers 202
func Accepted(body Body) *Response {
	return NewResponse(http.StatusAccepted, body)
}

// MovedPermanently answers 301 with a Location header
func MovedPermanently(location string) *Response {
	return NewResponse(http.StatusMovedPermanently, nil).SetHeader("Location", location)
}

// MovedTemporarily answers 307 with a Location header
func MovedTemporarily(location string) *Response {
	return NewResponse(http.StatusTemporaryRedirect, nil).SetHeader("Location", location)
}

// BadRequest answers 400
func BadRequest(body Body) *Response {
	return NewResponse(http.StatusBadRequest, body)
}

// Unauthorized answers 401
func Unauthorized(body Body) *Response {
	return NewResponse(http.StatusUnauthorized, body)
}

// Forbidden answers 403
func Forbidden(body Body) *Response {
	return NewResponse(http.StatusForbidden, body)
}

// NotFound answers 404
func NotFound(body Body) *Response {
	return NewResponse(http.StatusNotFound, body)
}

// NotAcceptable answers 406
func NotAcceptable(body Body) *Response {
	return NewResponse(http.StatusNotAcceptable, body)
}

// TooManyRequests answers 429
func TooManyRequests(body Body) *Response {
	return NewResponse(http.StatusTooManyRequests, body)
}

// InternalServerError answers 500
func InternalServerError(body Body) *Response {
	return NewResponse(http.StatusInternalServerError, body)
}

// Raw answers with any code, reason phrase and headers
func Raw(statusCode int, reason string, headers map[string]string, body Body) *Response {
	r := NewResponse(statusCode, body)
	r.Reason = reason
	for name, value := range headers {
		r.SetHeader(name, value)
	}
	return r
}

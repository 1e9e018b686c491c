package nanohttp

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// QueryParam is one name/value pair of the query string
type QueryParam struct {
	Name  string
	Value string
}

// Request is a parsed HTTP request.
//
// Requests are compared by ID, never by value: the parser hands out a fresh
// identity for every request it reads.
type Request struct {
	id uuid.UUID

	// Method is the request method as sent (e.g. "GET")
	Method string
	// Path is the percent-decoded path without the query string
	Path string
	// RawPath is the path as it appeared on the wire, used for routing
	RawPath string
	// RawQuery is the query string without the leading '?'
	RawQuery string
	// Query holds the query parameters in wire order, duplicates included
	Query []QueryParam
	// Body holds exactly Content-Length bytes, or nothing
	Body []byte
	// Params holds the path variables bound by the router
	Params map[string]string
	// Address is the peer host, when known
	Address string
	// Custom is free for middleware to attach per-request values
	Custom map[string]any

	headers map[string]string
}

// NewRequest creates an empty request for the given method and path
func NewRequest(method, path string) *Request {
	return &Request{
		id:      uuid.New(),
		Method:  method,
		Path:    path,
		RawPath: path,
		Params:  make(map[string]string),
		Custom:  make(map[string]any),
		headers: make(map[string]string),
	}
}

// ID returns the identity handle of the request
func (r *Request) ID() uuid.UUID {
	return r.id
}

// Same reports whether both values denote the same request
func (r *Request) Same(other *Request) bool {
	return other != nil && r.id == other.id
}

// Header returns the value of a header. Names are case-insensitive.
func (r *Request) Header(name string) (string, bool) {
	value, ok := r.headers[strings.ToLower(name)]
	return value, ok
}

// SetHeader sets a header, replacing any previous value
func (r *Request) SetHeader(name, value string) {
	r.headers[strings.ToLower(name)] = value
}

// RemoveHeader deletes a header
func (r *Request) RemoveHeader(name string) {
	delete(r.headers, strings.ToLower(name))
}

// Headers returns the lower-cased header names in sorted order
func (r *Request) Headers() []string {
	names := lo.Keys(r.headers)
	sort.Strings(names)
	return names
}

// HasToken reports whether a comma-separated header contains token,
// ignoring case and surrounding whitespace
func (r *Request) HasToken(header, token string) bool {
	value, ok := r.Header(header)
	if !ok {
		return false
	}
	for _, candidate := range strings.Split(value, ",") {
		if strings.EqualFold(strings.TrimSpace(candidate), token) {
			return true
		}
	}
	return false
}

// SupportsKeepAlive reports whether the client asked for a persistent connection
func (r *Request) SupportsKeepAlive() bool {
	value, ok := r.Header("connection")
	if !ok {
		return false
	}
	return strings.ToLower(strings.TrimSpace(value)) == "keep-alive"
}

// QueryValue returns the first value of a query parameter
func (r *Request) QueryValue(name string) (string, bool) {
	for _, param := range r.Query {
		if param.Name == name {
			return param.Value, true
		}
	}
	return "", false
}

// Param returns a path variable bound by the router
func (r *Request) Param(name string) string {
	return r.Params[name]
}

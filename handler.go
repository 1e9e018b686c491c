package nanohttp

// Handler produces the response for a routed request
type Handler func(req *Request) *Response

// Middleware runs before routing. Returning a non-nil response answers the
// request and skips routing; returning nil passes it on.
type Middleware func(req *Request) *Response

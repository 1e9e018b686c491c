package nanohttp

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/valyala/bytebufferpool"
)

// bufferedResponseWriter collects what a net/http handler writes so it can
// be turned into a Response afterwards
type bufferedResponseWriter struct {
	header http.Header
	status int
	buf    *bytebufferpool.ByteBuffer
}

func (w *bufferedResponseWriter) Header() http.Header {
	return w.header
}

func (w *bufferedResponseWriter) WriteHeader(statusCode int) {
	if w.status == 0 {
		w.status = statusCode
	}
}

func (w *bufferedResponseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.buf.Write(p)
}

// StdHandler adapts a net/http handler. The whole response is buffered, so
// it should only be used for small responses such as metrics or health pages.
func StdHandler(h http.Handler) Handler {
	return func(req *Request) *Response {
		target := req.RawPath
		if req.RawQuery != "" {
			target += "?" + req.RawQuery
		}
		stdReq, err := http.NewRequest(req.Method, target, bytes.NewReader(req.Body))
		if err != nil {
			return BadRequest(TextBody(err.Error()))
		}
		for _, name := range req.Headers() {
			value, _ := req.Header(name)
			stdReq.Header.Set(name, value)
		}
		if host, ok := req.Header("host"); ok {
			stdReq.Host = host
		}
		stdReq.RemoteAddr = req.Address

		w := &bufferedResponseWriter{
			header: make(http.Header),
			buf:    bytebufferpool.Get(),
		}
		defer bytebufferpool.Put(w.buf)

		h.ServeHTTP(w, stdReq)
		if w.status == 0 {
			w.status = http.StatusOK
		}

		body := make([]byte, w.buf.Len())
		copy(body, w.buf.B)
		resp := NewResponse(w.status, DataBody(body, w.header.Get("Content-Type")))
		for name, values := range w.header {
			if name == "Content-Type" || name == "Content-Length" {
				continue
			}
			resp.SetHeader(name, strings.Join(values, ", "))
		}
		return resp
	}
}

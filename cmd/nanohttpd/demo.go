package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/nanohttp"
	"github.com/muurk/nanohttp/internal/version"
	"github.com/muurk/nanohttp/router"
	"github.com/muurk/nanohttp/websocket"
)

const indexPage = `<h1>nanohttpd</h1>
<ul>
<li><a href="/ping">/ping</a></li>
<li><a href="/hello/world">/hello/:name</a></li>
<li><a href="/stream">/stream</a></li>
<li><a href="/metrics">/metrics</a></li>
</ul>`

// demoRoutes builds the example routing table. staticDir, when set, is
// served below /static.
func demoRoutes(logger *zap.Logger, staticDir string) *router.Router {
	r := router.New()

	r.Register("GET", "/", func(*nanohttp.Request) *nanohttp.Response {
		return nanohttp.OK(nanohttp.HTMLDocument(indexPage))
	})

	r.Register("GET", "/ping", func(*nanohttp.Request) *nanohttp.Response {
		return nanohttp.OK(nanohttp.TextBody("pong!"))
	})

	r.Register("POST", "/echo", func(req *nanohttp.Request) *nanohttp.Response {
		contentType, ok := req.Header("content-type")
		if !ok {
			contentType = "application/octet-stream"
		}
		return nanohttp.OK(nanohttp.DataBody(req.Body, contentType))
	})

	r.Register("GET", "/hello/:name", func(req *nanohttp.Request) *nanohttp.Response {
		return nanohttp.OK(nanohttp.JSONBody(map[string]string{
			"hello":   req.Param("name"),
			"request": req.ID().String(),
			"server":  version.ServerHeader(),
		}))
	})

	r.Register("POST", "/form", func(req *nanohttp.Request) *nanohttp.Response {
		fields := make(map[string]string)
		for _, field := range req.URLEncodedForm() {
			fields[field.Name] = field.Value
		}
		for _, part := range req.MultiPartFormData() {
			if name := part.FileName(); name != "" {
				fields[part.Name()] = fmt.Sprintf("%s (%d bytes)", name, len(part.Body))
				continue
			}
			fields[part.Name()] = string(part.Body)
		}
		return nanohttp.OK(nanohttp.JSONBody(fields))
	})

	r.Register("GET", "/stream", func(*nanohttp.Request) *nanohttp.Response {
		return nanohttp.OK(nanohttp.StreamBody("text/plain", func(w nanohttp.BodyWriter) error {
			for i := 1; i <= 5; i++ {
				if _, err := fmt.Fprintf(w, "tick %d\n", i); err != nil {
					return err
				}
				time.Sleep(200 * time.Millisecond)
			}
			return nil
		}))
	})

	r.Register("GET", "/ws", websocket.Handler(websocket.Callbacks{
		Text: func(s *websocket.Session, text string) {
			_ = s.WriteText(text)
		},
		Binary: func(s *websocket.Session, data []byte) {
			_ = s.WriteBinary(data)
		},
		Connected: func(s *websocket.Session) {
			logger.Info("WebSocket session started",
				zap.String("session", s.ID().String()),
				zap.String("remote_addr", s.RemoteAddr()),
			)
		},
		Disconnected: func(s *websocket.Session) {
			logger.Info("WebSocket session ended", zap.String("session", s.ID().String()))
		},
		Logger: logger,
	}))

	if staticDir != "" {
		r.Register("GET", "/static/::path", staticFiles(staticDir))
	}
	return r
}

// staticFiles serves regular files below root
func staticFiles(root string) nanohttp.Handler {
	return func(req *nanohttp.Request) *nanohttp.Response {
		rel := strings.TrimPrefix(req.Path, "/static")
		name := filepath.Join(root, filepath.FromSlash(filepath.Clean("/"+rel)))

		info, err := os.Stat(name)
		if err != nil || !info.Mode().IsRegular() {
			return nanohttp.NotFound(nil)
		}
		f, err := os.Open(name)
		if err != nil {
			return nanohttp.Forbidden(nil)
		}
		contentType := mime.TypeByExtension(filepath.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return nanohttp.OK(nanohttp.FileBody(f, contentType))
	}
}

package nanohttp

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// BodyWriter is where a response body is written. *socket.Socket implements it.
type BodyWriter interface {
	io.Writer
	WriteFile(f *os.File) error
	WriteFrom(r io.Reader) error
}

// Body is one response body variant
type Body interface {
	// Length is the encoded size in bytes, or -1 when it cannot be known
	// before writing
	Length() int
	// ContentType is the value of the Content-Type header, empty for none
	ContentType() string
	// WriteTo writes the encoded body
	WriteTo(w BodyWriter) error
}

// dataBody covers every variant whose bytes are known up front
type dataBody struct {
	data        []byte
	contentType string
}

func (b *dataBody) Length() int         { return len(b.data) }
func (b *dataBody) ContentType() string { return b.contentType }

func (b *dataBody) WriteTo(w BodyWriter) error {
	if len(b.data) == 0 {
		return nil
	}
	_, err := w.Write(b.data)
	return err
}

// EmptyBody has no content and a known length of zero
func EmptyBody() Body {
	return &dataBody{}
}

// TextBody is a plain text body
func TextBody(text string) Body {
	return &dataBody{data: []byte(text), contentType: "text/plain"}
}

// HTMLBody is an HTML fragment or document sent as-is
func HTMLBody(html string) Body {
	return &dataBody{data: []byte(html), contentType: "text/html"}
}

// HTMLDocument wraps content into a minimal UTF-8 HTML document
func HTMLDocument(content string) Body {
	return HTMLBody(`<html><meta charset="UTF-8"><body>` + content + `</body></html>`)
}

// DataBody sends raw bytes with the given content type
func DataBody(data []byte, contentType string) Body {
	return &dataBody{data: data, contentType: contentType}
}

// JSONBody encodes v as JSON. If encoding fails, the body becomes a text
// description of the failure instead.
func JSONBody(v any) Body {
	data, err := json.Marshal(v)
	if err != nil {
		return TextBody(fmt.Sprintf("Serialization error: %v", err))
	}
	return &dataBody{data: data, contentType: "application/json"}
}

// CustomBody serializes v with a caller supplied function. Failures are
// rendered the same way as for JSONBody.
func CustomBody(v any, serialize func(any) (string, error)) Body {
	text, err := serialize(v)
	if err != nil {
		return TextBody(fmt.Sprintf("Serialization error: %v", err))
	}
	return TextBody(text)
}

type streamBody struct {
	write       func(w BodyWriter) error
	contentType string
}

func (b *streamBody) Length() int                { return -1 }
func (b *streamBody) ContentType() string        { return b.contentType }
func (b *streamBody) WriteTo(w BodyWriter) error { return b.write(w) }

// StreamBody hands the connection to write. The length is unknown, so the
// connection is closed after the response.
func StreamBody(contentType string, write func(w BodyWriter) error) Body {
	return &streamBody{write: write, contentType: contentType}
}

type fileBody struct {
	file        *os.File
	size        int
	contentType string
}

func (b *fileBody) Length() int         { return b.size }
func (b *fileBody) ContentType() string { return b.contentType }

func (b *fileBody) WriteTo(w BodyWriter) error {
	defer b.file.Close()
	return w.WriteFile(b.file)
}

// FileBody sends an open file from its current offset and closes it
// afterwards. Regular files have a known length, anything else is treated as
// a stream.
func FileBody(f *os.File, contentType string) Body {
	size := -1
	if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
		if offset, err := f.Seek(0, io.SeekCurrent); err == nil {
			size = int(max(info.Size()-offset, 0))
		}
	}
	return &fileBody{file: f, size: size, contentType: contentType}
}

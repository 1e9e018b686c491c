package nanohttp

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultMaxBodySize caps request bodies when Parser.MaxBodySize is zero
	DefaultMaxBodySize = 32 << 20
	// DefaultMaxHeaders caps the header lines of one request when
	// Parser.MaxHeaders is zero
	DefaultMaxHeaders = 100
)

var (
	// ErrInvalidStatusLine is returned when the request line has fewer than three tokens
	ErrInvalidStatusLine = errors.New("invalid status line")
	// ErrNegativeContentLength is returned for a negative Content-Length header
	ErrNegativeContentLength = errors.New("negative content length")
	// ErrBodyTooLarge is returned when Content-Length exceeds the body cap
	ErrBodyTooLarge = errors.New("request body too large")
	// ErrTooManyHeaders is returned when a request exceeds the header cap
	ErrTooManyHeaders = errors.New("too many request headers")
)

// Source is the transport a Parser reads from. *socket.Socket implements it.
type Source interface {
	ReadLine() (string, error)
	ReadExactly(length int) ([]byte, error)
}

// Parser turns a byte stream into requests, one per ReadRequest call
type Parser struct {
	src Source

	// MaxBodySize is the largest Content-Length accepted, in bytes
	MaxBodySize int
	// MaxHeaders is the largest number of header lines accepted
	MaxHeaders int
}

// NewParser creates a parser reading from src with the default limits
func NewParser(src Source) *Parser {
	return &Parser{
		src:         src,
		MaxBodySize: DefaultMaxBodySize,
		MaxHeaders:  DefaultMaxHeaders,
	}
}

// ReadRequest reads the request line, the headers and the body
func (p *Parser) ReadRequest() (*Request, error) {
	statusLine, err := p.src.ReadLine()
	if err != nil {
		return nil, errors.Wrap(err, "read request line")
	}

	tokens := strings.Split(statusLine, " ")
	if len(tokens) < 3 {
		return nil, errors.Wrapf(ErrInvalidStatusLine, "%q", statusLine)
	}

	req := NewRequest(tokens[0], "")
	parseTarget(req, tokens[1])

	if err := p.readHeaders(req); err != nil {
		return nil, err
	}

	if value, ok := req.Header("content-length"); ok {
		length, convErr := strconv.Atoi(strings.TrimSpace(value))
		if convErr == nil {
			if length < 0 {
				return nil, errors.Wrapf(ErrNegativeContentLength, "content-length %d", length)
			}
			if length > p.maxBodySize() {
				return nil, errors.Wrapf(ErrBodyTooLarge, "content-length %d", length)
			}
			req.Body, err = p.src.ReadExactly(length)
			if err != nil {
				return nil, errors.Wrap(err, "read body")
			}
		}
	}

	return req, nil
}

func (p *Parser) readHeaders(req *Request) error {
	limit := p.MaxHeaders
	if limit <= 0 {
		limit = DefaultMaxHeaders
	}
	for count := 0; ; count++ {
		line, err := p.src.ReadLine()
		if err != nil {
			return errors.Wrap(err, "read header")
		}
		if line == "" {
			return nil
		}
		if count == limit {
			return errors.Wrapf(ErrTooManyHeaders, "more than %d", limit)
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		req.SetHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}
}

func (p *Parser) maxBodySize() int {
	if p.MaxBodySize <= 0 {
		return DefaultMaxBodySize
	}
	return p.MaxBodySize
}

// parseTarget fills path, raw path and query from the request target.
// Undecodable input is kept as-is rather than rejected.
func parseTarget(req *Request, target string) {
	if !strings.HasPrefix(target, "/") {
		if u, err := url.Parse(target); err == nil && u.Host != "" {
			target = u.EscapedPath()
			if u.RawQuery != "" {
				target += "?" + u.RawQuery
			}
		}
	}

	rawPath, rawQuery, _ := strings.Cut(target, "?")
	req.RawPath = rawPath
	req.Path = rawPath
	if decoded, err := url.PathUnescape(rawPath); err == nil {
		req.Path = decoded
	}
	req.RawQuery = rawQuery
	req.Query = parseQuery(rawQuery)
}

// parseQuery splits on '&' and then on the first '=' only, so values may
// themselves contain '=' or '?'
func parseQuery(rawQuery string) []QueryParam {
	if rawQuery == "" {
		return nil
	}
	var params []QueryParam
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		params = append(params, QueryParam{
			Name:  unescapeQuery(name),
			Value: unescapeQuery(value),
		})
	}
	return params
}

func unescapeQuery(s string) string {
	if decoded, err := url.QueryUnescape(s); err == nil {
		return decoded
	}
	return s
}

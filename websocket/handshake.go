package websocket

import (
	"crypto/sha1"
	"encoding/base64"

	"github.com/cockroachdb/errors"

	"github.com/muurk/nanohttp"
	"github.com/muurk/nanohttp/socket"
)

// acceptGUID is the fixed GUID from RFC 6455 section 1.3
const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// AcceptKey computes Sec-WebSocket-Accept for a client key
func AcceptKey(key string) string {
	sum := sha1.Sum([]byte(key + acceptGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// ValidateUpgrade checks the headers of an opening handshake and returns the
// client key
func ValidateUpgrade(req *nanohttp.Request) (string, error) {
	if !req.HasToken("upgrade", "websocket") {
		value, _ := req.Header("upgrade")
		return "", errors.Newf("Invalid value of 'Upgrade' header: %s", value)
	}
	if !req.HasToken("connection", "upgrade") {
		value, _ := req.Header("connection")
		return "", errors.Newf("Invalid value of 'Connection' header: %s", value)
	}
	key, ok := req.Header("sec-websocket-key")
	if !ok || key == "" {
		return "", errors.New("Invalid value of 'Sec-WebSocket-Key' header: missing")
	}
	return key, nil
}

// Handler returns a request handler that upgrades valid handshakes and runs
// a Session with the given callbacks. Invalid handshakes get a 400 response
// describing the problem.
func Handler(cb Callbacks) nanohttp.Handler {
	return func(req *nanohttp.Request) *nanohttp.Response {
		key, err := ValidateUpgrade(req)
		if err != nil {
			return nanohttp.BadRequest(nanohttp.TextBody(err.Error()))
		}

		headers := map[string]string{
			"Upgrade":              "WebSocket",
			"Connection":           "Upgrade",
			"Sec-WebSocket-Accept": AcceptKey(key),
		}
		return nanohttp.SwitchProtocols(headers, func(sock *socket.Socket) {
			newSession(sock, cb.Logger).run(cb)
		})
	}
}

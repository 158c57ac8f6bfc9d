package ws

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Upgrader accepts inbound sessions from HTTP requests.
type Upgrader struct {
	upgrader       *websocket.Upgrader
	responseHeader http.Header
	logger         *slog.Logger
}

// UpgraderOption configures an Upgrader.
type UpgraderOption func(*Upgrader)

// WithUpgradeReadBuffer sets the read buffer size in bytes.
func WithUpgradeReadBuffer(size int) UpgraderOption {
	return func(u *Upgrader) {
		if size > 0 {
			u.upgrader.ReadBufferSize = size
		}
	}
}

// WithUpgradeWriteBuffer sets the write buffer size in bytes.
func WithUpgradeWriteBuffer(size int) UpgraderOption {
	return func(u *Upgrader) {
		if size > 0 {
			u.upgrader.WriteBufferSize = size
		}
	}
}

// WithUpgradeHandshakeTimeout bounds the upgrade handshake.
func WithUpgradeHandshakeTimeout(timeout time.Duration) UpgraderOption {
	return func(u *Upgrader) {
		if timeout > 0 {
			u.upgrader.HandshakeTimeout = timeout
		}
	}
}

// WithOriginCheck sets a custom origin check for upgrade requests.
func WithOriginCheck(fn func(r *http.Request) bool) UpgraderOption {
	return func(u *Upgrader) {
		u.upgrader.CheckOrigin = fn
	}
}

// WithAllowAnyOrigin disables origin checking entirely.
func WithAllowAnyOrigin() UpgraderOption {
	return func(u *Upgrader) {
		u.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
}

// WithSubprotocols sets the supported subprotocols in preference order.
func WithSubprotocols(protocols ...string) UpgraderOption {
	return func(u *Upgrader) {
		u.upgrader.Subprotocols = protocols
	}
}

// WithUpgradeHeaders sets extra headers for the upgrade response.
func WithUpgradeHeaders(header http.Header) UpgraderOption {
	return func(u *Upgrader) {
		u.responseHeader = header
	}
}

// WithUpgraderLogger configures structured logging for the upgrader and the
// sessions it creates.
func WithUpgraderLogger(logger *slog.Logger) UpgraderOption {
	return func(u *Upgrader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewUpgrader creates an Upgrader with 1KB buffers by default.
func NewUpgrader(opts ...UpgraderOption) *Upgrader {
	u := &Upgrader{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upgrade accepts r as a websocket session. On success the session's read
// goroutine is already running and cb will receive its events. On failure the
// upgrader has already written an HTTP error response.
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request, cb Callbacks) (Session, error) {
	wsc, err := u.upgrader.Upgrade(w, r, u.responseHeader)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	u.logger.Debug("websocket session accepted", slog.String("remote", wsc.RemoteAddr().String()))
	return newConn(wsc, cb, u.logger), nil
}

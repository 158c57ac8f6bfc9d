package ws

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// GorillaDialer establishes outbound sessions over gorilla/websocket.
type GorillaDialer struct {
	dialer *websocket.Dialer
	header http.Header
	logger *slog.Logger
}

// DialerOption configures a GorillaDialer.
type DialerOption func(*GorillaDialer)

// WithHandshakeTimeout bounds the websocket handshake.
func WithHandshakeTimeout(timeout time.Duration) DialerOption {
	return func(d *GorillaDialer) {
		if timeout > 0 {
			d.dialer.HandshakeTimeout = timeout
		}
	}
}

// WithReadBuffer sets the read buffer size in bytes.
func WithReadBuffer(size int) DialerOption {
	return func(d *GorillaDialer) {
		if size > 0 {
			d.dialer.ReadBufferSize = size
		}
	}
}

// WithWriteBuffer sets the write buffer size in bytes.
func WithWriteBuffer(size int) DialerOption {
	return func(d *GorillaDialer) {
		if size > 0 {
			d.dialer.WriteBufferSize = size
		}
	}
}

// WithRequestHeader sets extra headers for the handshake request.
func WithRequestHeader(header http.Header) DialerOption {
	return func(d *GorillaDialer) {
		d.header = header
	}
}

// WithDialerLogger configures structured logging for the dialer and the
// sessions it creates.
func WithDialerLogger(logger *slog.Logger) DialerOption {
	return func(d *GorillaDialer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDialer creates a GorillaDialer with a 45 second handshake timeout by
// default, matching the underlying library.
func NewDialer(opts ...DialerOption) *GorillaDialer {
	d := &GorillaDialer{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 45 * time.Second,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial implements Dialer. On success the returned session's read goroutine is
// already running and cb will receive its events.
func (d *GorillaDialer) Dial(ctx context.Context, url string, cb Callbacks) (Session, error) {
	wsc, resp, err := d.dialer.DialContext(ctx, url, d.header)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	d.logger.Debug("websocket session established", slog.String("url", url))
	return newConn(wsc, cb, d.logger), nil
}

package wsclient

import (
	"time"

	"github.com/dmitrymomot/wsbridge/core/ws"
)

// Config holds client settings loadable from the environment via the config
// package.
type Config struct {
	// URL of the server endpoint, e.g. "ws://localhost:8080/chat".
	URL string `env:"WSBRIDGE_CLIENT_URL,required"`
	// HandshakeTimeout bounds the websocket handshake.
	HandshakeTimeout time.Duration `env:"WSBRIDGE_CLIENT_HANDSHAKE_TIMEOUT" envDefault:"45s"`
	// DialTimeout bounds a whole dial attempt, handshake included.
	DialTimeout time.Duration `env:"WSBRIDGE_CLIENT_DIAL_TIMEOUT" envDefault:"30s"`
	// ReadBufferSize is the connection read buffer size in bytes.
	ReadBufferSize int `env:"WSBRIDGE_CLIENT_READ_BUFFER" envDefault:"1024"`
	// WriteBufferSize is the connection write buffer size in bytes.
	WriteBufferSize int `env:"WSBRIDGE_CLIENT_WRITE_BUFFER" envDefault:"1024"`
}

// NewFromConfig creates a client from cfg. Options are applied after the
// config-derived defaults and may override them.
func NewFromConfig[T any](cfg Config, opts ...Option[T]) *Client[T] {
	base := []Option[T]{
		WithDialer[T](ws.NewDialer(
			ws.WithHandshakeTimeout(cfg.HandshakeTimeout),
			ws.WithReadBuffer(cfg.ReadBufferSize),
			ws.WithWriteBuffer(cfg.WriteBufferSize),
		)),
		WithDialTimeout[T](cfg.DialTimeout),
	}
	return New[T](cfg.URL, append(base, opts...)...)
}

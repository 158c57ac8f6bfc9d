package wsserver

import (
	"time"

	"github.com/dmitrymomot/wsbridge/core/ws"
)

// Config holds server endpoint settings loadable from the environment via the
// config package.
type Config struct {
	// HandshakeTimeout bounds the upgrade handshake.
	HandshakeTimeout time.Duration `env:"WSBRIDGE_SERVER_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	// ReadBufferSize is the per-connection read buffer size in bytes.
	ReadBufferSize int `env:"WSBRIDGE_SERVER_READ_BUFFER" envDefault:"1024"`
	// WriteBufferSize is the per-connection write buffer size in bytes.
	WriteBufferSize int `env:"WSBRIDGE_SERVER_WRITE_BUFFER" envDefault:"1024"`
	// AllowAnyOrigin disables the upgrader's origin check.
	AllowAnyOrigin bool `env:"WSBRIDGE_SERVER_ALLOW_ANY_ORIGIN" envDefault:"false"`
}

// NewFromConfig creates a server from cfg. Options are applied after the
// config-derived defaults and may override them.
func NewFromConfig[T any](cfg Config, opts ...Option[T]) *Server[T] {
	upgraderOpts := []ws.UpgraderOption{
		ws.WithUpgradeHandshakeTimeout(cfg.HandshakeTimeout),
		ws.WithUpgradeReadBuffer(cfg.ReadBufferSize),
		ws.WithUpgradeWriteBuffer(cfg.WriteBufferSize),
	}
	if cfg.AllowAnyOrigin {
		upgraderOpts = append(upgraderOpts, ws.WithAllowAnyOrigin())
	}
	base := []Option[T]{
		WithUpgrader[T](ws.NewUpgrader(upgraderOpts...)),
	}
	return New[T](append(base, opts...)...)
}

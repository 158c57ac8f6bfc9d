package ws

import "context"

// Session is one live transport connection. Implementations are safe for
// concurrent use.
type Session interface {
	// Send writes one text frame. It returns ErrSessionClosed if the session
	// is no longer open, or ErrSendFailed wrapping the I/O cause.
	Send(text string) error

	// Close shuts the connection down. Closing an already closed session is a
	// no-op. A failure is reported as ErrCloseFailed.
	Close() error

	// IsOpen reports whether the session can still carry frames.
	IsOpen() bool

	// RemoteAddr returns the network address of the remote end.
	RemoteAddr() string
}

// Callbacks receives transport events for one session. Events are delivered
// sequentially on the session's read goroutine, so implementations must not
// block on the session's own lifecycle. All fields are optional.
//
// Exactly one of OnError or OnClose fires, at most once, when the session
// stops: OnClose for a clean shutdown (close handshake or local Close),
// OnError for an abnormal one.
type Callbacks struct {
	OnMessage func(s Session, text string)
	OnError   func(s Session, cause error)
	OnClose   func(s Session)
}

// Dialer establishes outbound sessions.
type Dialer interface {
	Dial(ctx context.Context, url string, cb Callbacks) (Session, error)
}

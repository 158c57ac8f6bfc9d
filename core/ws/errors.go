package ws

import "errors"

var (
	// ErrConnectionFailed is returned when a connect attempt does not produce
	// a live session. The condition is retryable on the next trigger.
	ErrConnectionFailed = errors.New("could not connect to websocket server")

	// ErrSendFailed is returned when a single write fails. It is not fatal to
	// the session owner.
	ErrSendFailed = errors.New("failed to send websocket message")

	// ErrCloseFailed is returned when closing the underlying connection fails.
	ErrCloseFailed = errors.New("failed to close websocket connection")

	// ErrSessionClosed is returned by Send on a session that is no longer open.
	ErrSessionClosed = errors.New("websocket session is closed")
)

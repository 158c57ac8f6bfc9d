package wsclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/wsbridge/core/codec"
	"github.com/dmitrymomot/wsbridge/core/stream"
	"github.com/dmitrymomot/wsbridge/core/ws"
)

// DefaultDialTimeout bounds a dial attempt when no custom timeout is set.
const DefaultDialTimeout = 30 * time.Second

// Client is the client-side bridge Subject. It owns exactly one remote
// session, fans inbound entities out to its subscribers, and writes items
// pushed through OnNext to the wire. All methods are safe for concurrent use.
type Client[T any] struct {
	url         string
	dialer      ws.Dialer
	codec       codec.Codec[T]
	dialTimeout time.Duration
	logger      *slog.Logger

	reg     *stream.Registry[T]
	session atomic.Pointer[ws.Session]
	flight  singleflight.Group
}

// Option configures a Client.
type Option[T any] func(*Client[T])

// WithCodec replaces the default JSON codec.
func WithCodec[T any](c codec.Codec[T]) Option[T] {
	return func(cl *Client[T]) {
		if c != nil {
			cl.codec = c
		}
	}
}

// WithDialer replaces the default websocket dialer. Useful for tests and for
// transports with custom handshake behavior.
func WithDialer[T any](d ws.Dialer) Option[T] {
	return func(cl *Client[T]) {
		if d != nil {
			cl.dialer = d
		}
	}
}

// WithDialTimeout bounds each dial attempt. Default is DefaultDialTimeout.
func WithDialTimeout[T any](timeout time.Duration) Option[T] {
	return func(cl *Client[T]) {
		if timeout > 0 {
			cl.dialTimeout = timeout
		}
	}
}

// WithLogger configures structured logging for the client.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(cl *Client[T]) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// New creates a disconnected client for the server endpoint at url. No
// connection is attempted until the first Subscribe or OnNext.
func New[T any](url string, opts ...Option[T]) *Client[T] {
	c := &Client[T]{
		url:         url,
		dialer:      ws.NewDialer(),
		codec:       codec.JSON[T]{},
		dialTimeout: DefaultDialTimeout,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reg = stream.NewRegistry[T](stream.WithLogger(c.logger))
	return c
}

// Subscribe attaches sub to the stream of inbound entities and triggers
// connection establishment if no session is open yet. A connect failure
// terminates the stream with ws.ErrConnectionFailed, so sub observes it as
// its terminal error. Subscribing after the stream terminated replays the
// recorded outcome synchronously.
func (c *Client[T]) Subscribe(sub stream.Subscriber[T]) *stream.Subscription[T] {
	s := c.reg.Attach(sub)
	if c.reg.Terminated() {
		return s
	}
	if err := c.ensureConnected(); err != nil {
		c.reg.Error(err)
	}
	return s
}

// OnNext encodes item and writes it to the wire, establishing the session
// first if necessary. The producer pushing items has no synchronous error
// channel, so any failure is routed to the unhandled-error sink and the
// stream stays open.
func (c *Client[T]) OnNext(item T) {
	if err := c.send(item); err != nil {
		c.logger.Warn("outbound item dropped", slog.Any("error", err))
		stream.UnhandledError(err)
	}
}

// OnError accepts an upstream producer error. There is no semantic way to
// send an error over the wire, so it is discarded; local subscribers are
// unaffected.
func (c *Client[T]) OnError(cause error) {}

// OnComplete accepts an upstream completion signal. The connection should
// stay open until it is closed, so the signal is discarded.
func (c *Client[T]) OnComplete() {}

func (c *Client[T]) send(item T) error {
	if c.reg.Terminated() {
		return ws.ErrSessionClosed
	}
	if err := c.ensureConnected(); err != nil {
		return err
	}
	text, err := c.codec.Encode(item)
	if err != nil {
		return err
	}
	sess := c.currentSession()
	if sess == nil {
		return ws.ErrSessionClosed
	}
	return sess.Send(text)
}

// ensureConnected establishes the session if none is open. Concurrent callers
// collapse onto one dial attempt and share its outcome; a failure leaves the
// session absent so the next trigger retries.
func (c *Client[T]) ensureConnected() error {
	if sess := c.currentSession(); sess != nil && sess.IsOpen() {
		return nil
	}
	_, err, _ := c.flight.Do("dial", func() (any, error) {
		if sess := c.currentSession(); sess != nil && sess.IsOpen() {
			return nil, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.dialTimeout)
		defer cancel()
		sess, err := c.dialer.Dial(ctx, c.url, ws.Callbacks{
			OnMessage: c.handleMessage,
			OnError:   c.handleError,
			OnClose:   c.handleClose,
		})
		if err != nil {
			if !errors.Is(err, ws.ErrConnectionFailed) {
				err = errors.Join(ws.ErrConnectionFailed, err)
			}
			return nil, err
		}
		c.session.Store(&sess)
		return nil, nil
	})
	return err
}

func (c *Client[T]) handleMessage(_ ws.Session, text string) {
	entity, err := c.codec.Decode(text)
	if err != nil {
		// A malformed frame means the wire contract is violated; the
		// stream cannot continue.
		c.reg.Error(err)
		return
	}
	c.reg.Publish(entity)
}

func (c *Client[T]) handleError(_ ws.Session, cause error) {
	c.session.Store(nil)
	c.reg.Error(cause)
}

func (c *Client[T]) handleClose(_ ws.Session) {
	c.session.Store(nil)
	c.reg.Complete()
}

// Close completes the stream, disposes all subscribers, and closes the
// session if one is open. A close failure is returned to the caller even
// though the stream is already completed.
func (c *Client[T]) Close() error {
	c.reg.Complete()
	if sess := c.session.Swap(nil); sess != nil {
		return (*sess).Close()
	}
	return nil
}

// IsConnectionOpen reports whether a live session is currently held. It never
// triggers a connection attempt.
func (c *Client[T]) IsConnectionOpen() bool {
	sess := c.currentSession()
	return sess != nil && sess.IsOpen()
}

// HasSubscribers reports whether any subscriber is currently attached.
func (c *Client[T]) HasSubscribers() bool { return c.reg.HasSubscribers() }

// Terminated reports whether the stream reached its terminal state.
func (c *Client[T]) Terminated() bool { return c.reg.Terminated() }

// Completed reports whether the stream terminated normally.
func (c *Client[T]) Completed() bool { return c.reg.Completed() }

// Err returns the terminal error, or nil if the stream is open or completed.
func (c *Client[T]) Err() error { return c.reg.Err() }

func (c *Client[T]) currentSession() ws.Session {
	if p := c.session.Load(); p != nil {
		return *p
	}
	return nil
}

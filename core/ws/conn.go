package ws

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds a single frame write, including the close frame sent
// during shutdown.
const writeWait = 10 * time.Second

// conn adapts a gorilla connection to the Session interface and owns its read
// goroutine.
type conn struct {
	ws     *websocket.Conn
	wmu    sync.Mutex // gorilla supports one concurrent writer
	open   atomic.Bool
	logger *slog.Logger
}

func newConn(wsc *websocket.Conn, cb Callbacks, logger *slog.Logger) *conn {
	c := &conn{ws: wsc, logger: logger}
	c.open.Store(true)
	go c.readLoop(cb)
	return c
}

func (c *conn) readLoop(cb Callbacks) {
	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			// Losing the open flag here means Close already ran; report
			// that as a clean shutdown regardless of the read error.
			wasOpen := c.open.CompareAndSwap(true, false)
			if !wasOpen || isCleanClose(err) {
				c.logger.Debug("websocket session closed", slog.String("remote", c.RemoteAddr()))
				if cb.OnClose != nil {
					cb.OnClose(c)
				}
			} else {
				c.logger.Debug("websocket session failed",
					slog.String("remote", c.RemoteAddr()), slog.Any("error", err))
				if cb.OnError != nil {
					cb.OnError(c, err)
				}
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if cb.OnMessage != nil {
			cb.OnMessage(c, string(data))
		}
	}
}

func isCleanClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived)
}

func (c *conn) Send(text string) error {
	if !c.open.Load() {
		return ErrSessionClosed
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

func (c *conn) Close() error {
	if !c.open.CompareAndSwap(true, false) {
		return nil
	}
	// Best-effort close handshake so the peer sees a normal closure.
	c.wmu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.wmu.Unlock()
	if err := c.ws.Close(); err != nil {
		return errors.Join(ErrCloseFailed, err)
	}
	return nil
}

func (c *conn) IsOpen() bool {
	return c.open.Load()
}

func (c *conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

// Package ws is the websocket transport layer of the bridge: a narrow Session
// abstraction over gorilla/websocket plus the callbacks through which the
// transport reports inbound frames and lifecycle events.
//
// A Session sends and receives opaque text frames. Inbound traffic is
// delivered through Callbacks on a per-session read goroutine owned by the
// transport; the bridge variants translate those events into stream
// semantics, this package does not interpret frame contents.
//
// Outbound sessions are established with a Dialer:
//
//	dialer := ws.NewDialer(ws.WithHandshakeTimeout(5 * time.Second))
//	sess, err := dialer.Dial(ctx, "ws://localhost:8080/feed", ws.Callbacks{
//	    OnMessage: func(s ws.Session, text string) { ... },
//	    OnClose:   func(s ws.Session) { ... },
//	})
//
// Inbound sessions are accepted with an Upgrader from inside an HTTP handler:
//
//	up := ws.NewUpgrader(ws.WithAllowAnyOrigin())
//	sess, err := up.Upgrade(w, r, callbacks)
//
// Sessions are safe for concurrent Send calls; writes are serialized
// internally because the underlying connection supports one writer at a time.
package ws

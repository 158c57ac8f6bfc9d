// Package wsserver provides the server-side bridge Subject: a websocket
// endpoint whose connected peers all feed one multi-subscriber stream of
// decoded entities, and whose OnNext broadcasts outbound items to every peer.
//
// Server implements http.Handler; mount it on any mux:
//
//	srv := wsserver.New[ChatMessage](wsserver.WithAllowAnyOrigin[ChatMessage]())
//	defer srv.Close()
//	http.Handle("/chat", srv)
//
//	sub := srv.Subscribe(stream.Subscriber[ChatMessage]{
//	    OnNext: func(m ChatMessage) { fmt.Println("from a peer:", m.Text) },
//	})
//	defer sub.Dispose()
//
//	srv.Broadcast(ChatMessage{Text: "hello everyone"})
//
// Peer churn never terminates the stream: a peer's error or disconnect only
// removes that peer from the set. The stream ends when Close is called, or
// when an inbound frame cannot be decoded (a violated wire contract).
// Broadcast delivery is best-effort; a write failure for one peer goes to
// the stream package's unhandled-error sink and the remaining peers still
// receive the item.
package wsserver

// Package wsclient provides the client-side bridge Subject: one outbound
// websocket session turned into a multi-subscriber stream of decoded entities
// and a sink for outbound items.
//
// The session is established lazily, on the first Subscribe or on the first
// OnNext that needs it. Concurrent triggers collapse onto a single dial
// attempt; a failed attempt leaves the client disconnected so a later trigger
// may retry.
//
//	client := wsclient.New[ChatMessage]("ws://localhost:8080/chat")
//	defer client.Close()
//
//	sub := client.Subscribe(stream.Subscriber[ChatMessage]{
//	    OnNext:     func(m ChatMessage) { fmt.Println(m.Text) },
//	    OnError:    func(err error) { log.Println("stream failed:", err) },
//	    OnComplete: func() { log.Println("stream ended") },
//	})
//	defer sub.Dispose()
//
//	client.OnNext(ChatMessage{Text: "hello"}) // encoded and written to the wire
//
// A connect failure during Subscribe terminates the stream with
// ws.ErrConnectionFailed. A remote close completes it; a remote error or a
// malformed inbound frame terminates it with the cause. Failures of
// fire-and-forget sends are routed to the stream package's unhandled-error
// sink and leave the stream open.
package wsclient

// Package stream provides the subscriber registry and terminal state machine
// shared by the websocket bridge variants.
//
// A Registry tracks the consumers attached to one Subject, fans published
// items out to all of them, and records exactly one terminal outcome:
// completed or errored. The terminal transition is monotonic - once set it
// never changes, and every consumer attached afterwards immediately observes
// the recorded outcome instead of waiting on a stream that already ended.
//
// Registry methods are safe for concurrent use and lock-free on the hot
// paths: each Subscription carries its own atomic disposed flag, and the
// terminal cell is a single compare-and-swap, so Publish never serializes
// against unrelated attach or dispose calls.
//
// Basic usage:
//
//	reg := stream.NewRegistry[string]()
//
//	sub := reg.Attach(stream.Subscriber[string]{
//	    OnNext:     func(s string) { fmt.Println("got:", s) },
//	    OnError:    func(err error) { fmt.Println("failed:", err) },
//	    OnComplete: func() { fmt.Println("done") },
//	})
//	defer sub.Dispose()
//
//	reg.Publish("hello")
//	reg.Complete()
//
// # Unhandled errors
//
// Errors that arrive after the stream has terminated, and failures of
// fire-and-forget operations such as outbound sends, have no valid recipient.
// They are routed to a process-wide sink that the embedding application may
// override:
//
//	stream.SetUnhandledErrorHandler(func(err error) {
//	    metrics.DroppedErrors.Inc()
//	})
package stream

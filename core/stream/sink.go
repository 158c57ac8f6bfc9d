package stream

import (
	"log/slog"
	"sync/atomic"
)

// unhandledHandler is the process-wide sink for errors with no valid
// recipient: errors raised after a stream terminated and failures of
// fire-and-forget sends.
var unhandledHandler atomic.Pointer[func(error)]

// SetUnhandledErrorHandler replaces the process-wide unhandled-error sink.
// Passing nil restores the default, which logs via slog.Default.
func SetUnhandledErrorHandler(fn func(error)) {
	if fn == nil {
		unhandledHandler.Store(nil)
		return
	}
	unhandledHandler.Store(&fn)
}

// UnhandledError routes cause to the process-wide sink. It never panics and
// ignores nil causes.
func UnhandledError(cause error) {
	if cause == nil {
		return
	}
	if fn := unhandledHandler.Load(); fn != nil {
		(*fn)(cause)
		return
	}
	slog.Default().Error("unhandled stream error", slog.Any("error", cause))
}

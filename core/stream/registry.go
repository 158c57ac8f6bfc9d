package stream

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// terminal is the one-shot end-of-stream outcome. A nil err means the stream
// completed normally.
type terminal struct {
	err error
}

// Registry tracks the subscribers attached to one Subject together with its
// terminal state. All methods are safe for concurrent use.
type Registry[T any] struct {
	mu   sync.RWMutex
	subs map[*Subscription[T]]struct{}

	// nil while the stream is open; set exactly once.
	terminal atomic.Pointer[terminal]

	logger *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	logger *slog.Logger
}

// WithLogger configures structured logging for the registry.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(c *registryConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRegistry creates an empty, open registry.
func NewRegistry[T any](opts ...RegistryOption) *Registry[T] {
	cfg := registryConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry[T]{
		subs:   make(map[*Subscription[T]]struct{}),
		logger: cfg.logger,
	}
}

// Attach registers sub and returns its disposal handle. If the stream has
// already terminated, the recorded outcome is replayed synchronously and the
// returned handle is already disposed; no OnNext will ever reach it.
func (r *Registry[T]) Attach(sub Subscriber[T]) *Subscription[T] {
	s := &Subscription[T]{sub: sub, owner: r}

	if t := r.terminal.Load(); t != nil {
		s.disposed.Store(true)
		replay(sub, t)
		return s
	}

	r.mu.Lock()
	r.subs[s] = struct{}{}
	r.mu.Unlock()

	// The terminal transition may have raced the insert above and missed
	// this handle in its sweep; whichever side wins the dispose CAS owes
	// the subscriber its replay.
	if t := r.terminal.Load(); t != nil && s.disposed.CompareAndSwap(false, true) {
		r.remove(s)
		replay(sub, t)
	}
	return s
}

// Publish delivers item to every handle attached and not disposed at delivery
// time, in the caller's order. Handles attached or disposed concurrently may
// or may not be reached by this call; a handle whose disposed flag is visible
// is always skipped.
func (r *Registry[T]) Publish(item T) {
	for _, s := range r.snapshot() {
		s.next(item)
	}
}

// Complete transitions the stream to its completed terminal state and notifies
// every attached subscriber exactly once. Calling it again, or after Error, is
// a no-op.
func (r *Registry[T]) Complete() {
	r.terminate(&terminal{})
}

// Error transitions the stream to its errored terminal state and notifies
// every attached subscriber exactly once. If the stream has already terminated
// the cause has no valid recipient and is routed to the unhandled-error sink.
func (r *Registry[T]) Error(cause error) {
	if !r.terminate(&terminal{err: cause}) {
		r.logger.Warn("error after stream terminated", slog.Any("error", cause))
		UnhandledError(cause)
	}
}

func (r *Registry[T]) terminate(t *terminal) bool {
	if !r.terminal.CompareAndSwap(nil, t) {
		return false
	}
	for _, s := range r.snapshot() {
		if s.disposed.CompareAndSwap(false, true) {
			replay(s.sub, t)
		}
	}
	r.mu.Lock()
	clear(r.subs)
	r.mu.Unlock()
	r.logger.Debug("stream terminated", slog.Bool("completed", t.err == nil), slog.Any("error", t.err))
	return true
}

func replay[T any](sub Subscriber[T], t *terminal) {
	if t.err != nil {
		sub.fail(t.err)
	} else {
		sub.complete()
	}
}

// HasSubscribers reports whether any handle is currently attached.
func (r *Registry[T]) HasSubscribers() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs) > 0
}

// Terminated reports whether the stream has reached its terminal state.
func (r *Registry[T]) Terminated() bool {
	return r.terminal.Load() != nil
}

// Completed reports whether the stream terminated normally.
func (r *Registry[T]) Completed() bool {
	t := r.terminal.Load()
	return t != nil && t.err == nil
}

// Err returns the recorded terminal error, or nil if the stream is open or
// completed normally.
func (r *Registry[T]) Err() error {
	if t := r.terminal.Load(); t != nil {
		return t.err
	}
	return nil
}

func (r *Registry[T]) snapshot() []*Subscription[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Subscription[T], 0, len(r.subs))
	for s := range r.subs {
		out = append(out, s)
	}
	return out
}

func (r *Registry[T]) remove(s *Subscription[T]) {
	r.mu.Lock()
	delete(r.subs, s)
	r.mu.Unlock()
}

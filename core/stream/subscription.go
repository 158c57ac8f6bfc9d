package stream

import "sync/atomic"

// Subscription is the disposal handle returned by Registry.Attach. It is safe
// to dispose concurrently and repeatedly; the disposed flag is a single
// compare-and-swap, which makes disposal the idempotence point for the whole
// registry.
type Subscription[T any] struct {
	sub      Subscriber[T]
	owner    *Registry[T]
	disposed atomic.Bool
}

// Dispose marks the handle disposed and removes it from the owning registry.
// It reports whether this call performed the removal, so callers can attach
// exactly-once teardown side effects to the winning call.
func (s *Subscription[T]) Dispose() bool {
	if !s.disposed.CompareAndSwap(false, true) {
		return false
	}
	s.owner.remove(s)
	return true
}

// Disposed reports whether the handle has been disposed. A disposed handle
// never receives further callbacks.
func (s *Subscription[T]) Disposed() bool {
	return s.disposed.Load()
}

// next delivers item unless the handle was disposed by the time the flag is
// checked. The check happens per delivery, not per fan-out, so a dispose that
// lands mid-publish suppresses delivery to this handle only.
func (s *Subscription[T]) next(item T) {
	if !s.disposed.Load() {
		s.sub.next(item)
	}
}

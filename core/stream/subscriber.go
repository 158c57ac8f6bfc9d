package stream

// Subscriber is the callback set of one attached consumer. All fields are
// optional; nil callbacks are skipped at delivery time so consumers only
// implement the signals they care about.
type Subscriber[T any] struct {
	OnNext     func(item T)
	OnError    func(cause error)
	OnComplete func()
}

func (s Subscriber[T]) next(item T) {
	if s.OnNext != nil {
		s.OnNext(item)
	}
}

func (s Subscriber[T]) fail(cause error) {
	if s.OnError != nil {
		s.OnError(cause)
	}
}

func (s Subscriber[T]) complete() {
	if s.OnComplete != nil {
		s.OnComplete()
	}
}

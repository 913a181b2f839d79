package sequence

import "errors"

// ErrPending is returned by Future.Result before the future settles.
var ErrPending = errors.New("future not settled")

// Future is a single-assignment result delivered through a Loop. Handlers
// attached with Then always run on a later tick, never synchronously, even
// when the future has already settled.
type Future[T any] struct {
	loop     *Loop
	settled  bool
	value    T
	err      error
	handlers []func()
}

func newFuture[T any](loop *Loop) *Future[T] {
	return &Future[T]{loop: loop}
}

// Resolved returns a future already holding v.
func Resolved[T any](loop *Loop, v T) *Future[T] {
	f := newFuture[T](loop)
	f.resolve(v)
	return f
}

// Rejected returns a future already holding err.
func Rejected[T any](loop *Loop, err error) *Future[T] {
	f := newFuture[T](loop)
	f.reject(err)
	return f
}

func (f *Future[T]) resolve(v T) {
	if f.settled {
		return
	}
	f.value = v
	f.settle()
}

func (f *Future[T]) reject(err error) {
	if f.settled {
		return
	}
	f.err = err
	f.settle()
}

func (f *Future[T]) settle() {
	f.settled = true
	for _, h := range f.handlers {
		f.loop.Defer(h)
	}
	f.handlers = nil
}

// Then registers handlers for the value and the error. Either may be nil.
func (f *Future[T]) Then(onValue func(T), onError func(error)) {
	h := func() {
		if f.err != nil {
			if onError != nil {
				onError(f.err)
			}
			return
		}
		if onValue != nil {
			onValue(f.value)
		}
	}
	if f.settled {
		f.loop.Defer(h)
		return
	}
	f.handlers = append(f.handlers, h)
}

// Done reports whether the future has settled.
func (f *Future[T]) Done() bool {
	return f.settled
}

// Result returns the settled value and error, or ErrPending.
func (f *Future[T]) Result() (T, error) {
	if !f.settled {
		var zero T
		return zero, ErrPending
	}
	return f.value, f.err
}

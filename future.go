package kvdoc

import (
	"context"
	"sync"
)

// Future is the result of an asynchronous operation. It resolves exactly
// once, with a value or an error.
type Future[T any] struct {
	done      chan struct{}
	mu        sync.Mutex
	resolved  bool
	value     T
	err       error
	callbacks []func(T, error)
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future that has already completed with v.
func Resolved[T any](v T) *Future[T] {
	f := newFuture[T]()
	f.resolve(v, nil)
	return f
}

// Failed returns a future that has already completed with err.
func Failed[T any](err error) *Future[T] {
	f := newFuture[T]()
	var zero T
	f.resolve(zero, err)
	return f
}

func (f *Future[T]) resolve(v T, err error) {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		panic("kvdoc: future resolved twice")
	}
	f.resolved = true
	f.value, f.err = v, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
}

// Done returns a channel closed when the future resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// WaitContext is like Wait but gives up when ctx is done. Giving up does not
// cancel the operation.
func (f *Future[T]) WaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnComplete calls cb once the future resolves: on the goroutine that
// resolves it, or immediately if it already has.
func (f *Future[T]) OnComplete(cb func(T, error)) {
	f.mu.Lock()
	if !f.resolved {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	cb(f.value, f.err)
}

// Then returns a future resolving to fn applied to f's value. Errors pass
// through without calling fn.
func Then[T, U any](f *Future[T], fn func(T) U) *Future[U] {
	g := newFuture[U]()
	f.OnComplete(func(v T, err error) {
		if err != nil {
			var zero U
			g.resolve(zero, err)
			return
		}
		g.resolve(fn(v), nil)
	})
	return g
}

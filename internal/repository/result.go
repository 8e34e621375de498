package repository

import (
	"context"
	"sync"

	apperrors "github.com/julianstephens/pillbook/internal/errors"
)

// Result is the eventual outcome of one repository operation. It resolves
// exactly once; a non-nil error is always an *apperrors.Error.
type Result[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

func newResult[T any]() *Result[T] {
	return &Result[T]{done: make(chan struct{})}
}

// Failed returns a Result already resolved with err.
func Failed[T any](err error) *Result[T] {
	r := newResult[T]()
	var zero T
	r.resolve(zero, err)
	return r
}

// Resolved returns a Result already resolved with v.
func Resolved[T any](v T) *Result[T] {
	r := newResult[T]()
	r.resolve(v, nil)
	return r
}

func (r *Result[T]) resolve(v T, err error) {
	r.once.Do(func() {
		r.val = v
		if err != nil {
			r.err = toAppError(err)
		}
		close(r.done)
	})
}

// Done is closed once the result is available.
func (r *Result[T]) Done() <-chan struct{} {
	return r.done
}

// Await blocks until the result is available or ctx ends. Cancelling ctx
// stops the wait, not the operation.
func (r *Result[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, &apperrors.Error{
			Kind:    apperrors.KindUnavailable,
			Message: "wait cancelled",
			Err:     ctx.Err(),
		}
	}
}

// Wait blocks until the result is available.
func (r *Result[T]) Wait() (T, error) {
	return r.Await(context.Background())
}

// Value returns the outcome without blocking. ok is false while the
// operation is still running.
func (r *Result[T]) Value() (v T, ok bool, err error) {
	select {
	case <-r.done:
		return r.val, true, r.err
	default:
		return v, false, nil
	}
}

func toAppError(err error) *apperrors.Error {
	if e, ok := err.(*apperrors.Error); ok {
		return e
	}
	if apperrors.KindOf(err) != "" {
		return &apperrors.Error{Kind: apperrors.KindOf(err), Message: err.Error(), Err: err}
	}
	return apperrors.Store("complete operation", err)
}

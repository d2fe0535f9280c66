// Package fn provides a generic success-or-failure result type.
package fn

import "fmt"

// Result holds either a value or the error explaining why there is none.
type Result[T any] struct {
	val T
	err error
	ok  bool
}

// Ok creates a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{val: v, ok: true}
}

// Err creates a failed Result. A nil error is replaced so that a failed
// Result always carries a reason.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = fmt.Errorf("unspecified failure")
	}
	return Result[T]{err: err}
}

// Errf creates a failed Result from a formatted string.
func Errf[T any](format string, args ...any) Result[T] {
	return Result[T]{err: fmt.Errorf(format, args...)}
}

// FromPair creates a Result from a (value, error) pair.
func FromPair[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

func (r Result[T]) IsOk() bool  { return r.ok }
func (r Result[T]) IsErr() bool { return !r.ok }

// Error returns the failure reason, or nil for a successful Result.
func (r Result[T]) Error() error { return r.err }

// Unwrap returns the value and error.
func (r Result[T]) Unwrap() (T, error) { return r.val, r.err }

// UnwrapOr returns the value or a fallback on error.
func (r Result[T]) UnwrapOr(fallback T) T {
	if !r.ok {
		return fallback
	}
	return r.val
}

// UnwrapOrElse returns the value or computes a fallback from the error.
func (r Result[T]) UnwrapOrElse(f func(error) T) T {
	if !r.ok {
		return f(r.err)
	}
	return r.val
}

// Map transforms the value if ok.
func (r Result[T]) Map(f func(T) T) Result[T] {
	if !r.ok {
		return r
	}
	return Ok(f(r.val))
}

// Then chains a fallible step that changes the value type.
func Then[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if !r.ok {
		return Err[U](r.err)
	}
	return f(r.val)
}

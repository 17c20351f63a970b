package functional

import "fmt"

// Result represents the result of an operation that can either succeed with a value or fail with an error.
type Result[T any] struct {
	value T
	err   error
}

// Ok creates a successful Result with the given value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err creates a failed Result with the given error.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// IsOk returns true if the Result contains a value.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// IsErr returns true if the Result contains an error.
func (r Result[T]) IsErr() bool {
	return r.err != nil
}

// Unwrap returns the contained value or panics if the Result is an error.
func (r Result[T]) Unwrap() T {
	if r.err != nil {
		panic(fmt.Sprintf("called Unwrap on Err: %v", r.err))
	}
	return r.value
}

// UnwrapOr returns the contained value or the provided default if error.
func (r Result[T]) UnwrapOr(defaultValue T) T {
	if r.err != nil {
		return defaultValue
	}
	return r.value
}

// Error returns the contained error or nil if successful.
func (r Result[T]) Error() error {
	return r.err
}

// Value returns the contained value and error in the usual Go shape.
func (r Result[T]) Value() (T, error) {
	return r.value, r.err
}

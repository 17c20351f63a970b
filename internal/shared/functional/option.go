package functional

// Option holds a value that may be absent. Cache lookups return it so a miss
// is distinguishable from a cached zero value.
type Option[T any] struct {
	value *T
}

// Some creates an Option containing the given value.
func Some[T any](value T) Option[T] {
	return Option[T]{value: &value}
}

// None creates an empty Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// IsSome returns true if the Option contains a value.
func (o Option[T]) IsSome() bool {
	return o.value != nil
}

// IsNone returns true if the Option is empty.
func (o Option[T]) IsNone() bool {
	return o.value == nil
}

// Unwrap returns the contained value or panics if None.
func (o Option[T]) Unwrap() T {
	if o.value == nil {
		panic("called Unwrap on None")
	}
	return *o.value
}

// UnwrapOr returns the contained value or the provided default.
func (o Option[T]) UnwrapOr(defaultValue T) T {
	if o.value == nil {
		return defaultValue
	}
	return *o.value
}

// Package cmhost provides the host-side Go representations of Component
// Model value shapes that the generated lift/lower code (internal/cabi)
// constructs and consumes: ValueOrOk for option<T> in return position,
// ValueOrError for result<T,E> (except a return-position result whose OK
// type is a primitive or unit), Variant for
// variant<...> and result<...> payloads, Flags for flags, and a
// concurrency-safe resource table.
//
// Unlike github.com/bytecodealliance/wasm-tools-go/cm, which these types
// are modeled on, cmhost values never need a Canonical-ABI-compatible
// memory layout: a host process never gets lifted or lowered itself, only
// read out of or written into a guest module's linear memory by explicit
// instruction-emitter code. So cmhost favors ordinary boxed Go values over
// unsafe-pointer bit tricks.
package cmhost

// ValueOrOk represents option<T> in function-return position. In any other
// position (struct field, list element, or another variant's payload),
// internal/surface renders option<T> as a *T instead.
type ValueOrOk[T any] struct {
	value T
	ok    bool
}

// None returns the ValueOrOk representing the WIT "none" case.
func None[T any]() ValueOrOk[T] {
	return ValueOrOk[T]{}
}

// Some returns the ValueOrOk representing the WIT "some" case holding v.
func Some[T any](v T) ValueOrOk[T] {
	return ValueOrOk[T]{value: v, ok: true}
}

// Get returns the held value and true if this represents "some", or the
// zero value and false if it represents "none".
func (o ValueOrOk[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsSome reports whether o holds a value.
func (o ValueOrOk[T]) IsSome() bool { return o.ok }

// Ptr returns a non-nil *T if o holds a value, mirroring the pointer
// representation option<T> takes in struct-field position (spec.md §4.2).
func (o *ValueOrOk[T]) Ptr() *T {
	if !o.ok {
		return nil
	}
	return &o.value
}

// ValueOrError represents result<T,E> outside function-return position, and
// in return position when T is not a primitive or unit type. A
// return-position result<T,E> with a primitive or unit T renders as the
// bare T instead. For E = string the generated error carries the lifted
// message; for any other E it is a fixed "call failed" error that does not
// wrap the lifted E.
type ValueOrError[T any] struct {
	value T
	err   error
}

// OK returns the ValueOrError representing the WIT "ok" case holding v.
func OK[T any](v T) ValueOrError[T] {
	return ValueOrError[T]{value: v}
}

// Fail returns the ValueOrError representing the WIT "error" case.
func Fail[T any](err error) ValueOrError[T] {
	return ValueOrError[T]{err: err}
}

// Value returns the OK value and a nil error, or the zero value and a
// non-nil error.
func (r ValueOrError[T]) Value() (T, error) {
	return r.value, r.err
}

// IsErr reports whether r represents the WIT "error" case.
func (r ValueOrError[T]) IsErr() bool { return r.err != nil }

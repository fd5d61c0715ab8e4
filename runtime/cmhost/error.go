package cmhost

import "fmt"

// StructuredError wraps a lifted WIT error payload of type E so that
// result<T,E> with a non-string, non-unit E can still lift to the
// idiomatic (T, error) shape in return position (spec.md §4.2). Callers
// that need the original payload back recover it with errors.As against
// *StructuredError[E].
type StructuredError[E any] struct {
	Payload E
}

// NewStructuredError wraps payload as a Go error.
func NewStructuredError[E any](payload E) *StructuredError[E] {
	return &StructuredError[E]{Payload: payload}
}

func (e *StructuredError[E]) Error() string {
	return fmt.Sprintf("%+v", e.Payload)
}

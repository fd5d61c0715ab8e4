package cmhost

import "fmt"

// Variant is the host-side representation of a WIT variant or
// multi-payload-shape result: a small integer discriminant plus a boxed
// payload. The type-definition emitter (internal/typedef) generates one
// concrete named type per WIT variant with constructors and predicates
// built on top of Variant; application code never constructs a Variant
// directly.
type Variant struct {
	tag     uint32
	payload any
}

// NewVariant returns a Variant with the given discriminant tag and payload.
// payload is nil for a case with no associated type.
func NewVariant(tag uint32, payload any) Variant {
	return Variant{tag: tag, payload: payload}
}

// Tag returns the discriminant: the zero-based index of v's case in WIT
// declaration order.
func (v Variant) Tag() uint32 { return v.tag }

// Case returns nil if v's discriminant is not tag. Otherwise it returns a
// non-nil *T: the payload, or T's zero value for a case with no payload.
// It panics if the discriminant matches but the payload is not of type T.
// Generated case getters (e.g. "func (v Shape) Circle() *float32") are
// one-line wrappers around this.
func Case[T any](v *Variant, tag uint32) *T {
	if v.tag != tag {
		return nil
	}
	if v.payload == nil {
		var zero T
		return &zero
	}
	t, ok := v.payload.(T)
	if !ok {
		panic(fmt.Sprintf("cmhost: variant case %d payload is %T, not %T", tag, v.payload, t))
	}
	return &t
}

// Is reports whether v's discriminant equals tag, for cases with no
// associated payload type.
func (v Variant) Is(tag uint32) bool { return v.tag == tag }

// Package surface resolves a WIT type, at a given use position, into the
// Go type that the rest of the generator should render for it
// (SPEC_FULL.md §4.2). Alignment, size, and Canonical ABI flattening are
// delegated to github.com/bytecodealliance/wasm-tools-go/wit's own
// wit.Type.Align/Size/Flat — this package's own job is purely the
// position-dependent choice of Go shape (ValueOrOk vs. a plain pointer,
// (T, error) vs. ValueOrError, named struct vs. anonymous literal, ...)
// and rendering that shape as Go source text.
//
// Grounded on the teacher's wit/bindgen/generator.go typeRep/recordRep/
// tupleRep/flagsRep/enumRep/variantRep/resultRep/optionRep/listRep family,
// adapted from ABI-layout-compatible guest types (github.com/
// bytecodealliance/wasm-tools-go/cm) to ordinary boxed host types
// (runtime/cmhost), since host-side Go values are never themselves
// lifted or lowered.
package surface

import (
	"fmt"
	"strings"

	"github.com/bytecodealliance/wasm-tools-go/wit"

	"github.com/wasmgravity/gravity/internal/gengo"
	"github.com/wasmgravity/gravity/internal/ident"
)

// Position describes where a type occurs, since the Canonical ABI's own
// "option of primitive" and "result of primitive" special cases render
// differently depending on it (spec.md §4.2).
type Position int

const (
	// Param is a function parameter.
	Param Position = iota
	// Return is a function result, where option<T> renders as
	// cmhost.ValueOrOk[T] and result<T,E> with a primitive or unit T
	// renders as the bare T.
	Return
	// Field is a record field, tuple element, or variant case payload.
	Field
	// Element is a list element or other deeply nested position.
	Element
)

// cmhostImportPath is the import path generated code uses for the
// runtime's boxed Component-Model value types.
const cmhostImportPath = "github.com/wasmgravity/gravity/runtime/cmhost"

// CoreType is one of the four core-Wasm value types the Canonical ABI
// flattens parameters and results into.
type CoreType int

const (
	CoreI32 CoreType = iota
	CoreI64
	CoreF32
	CoreF64
)

func (c CoreType) String() string {
	switch c {
	case CoreI32:
		return "i32"
	case CoreI64:
		return "i64"
	case CoreF32:
		return "f32"
	case CoreF64:
		return "f64"
	default:
		return "?"
	}
}

// Flatten converts t's ABI flattening (wit.Type.Flat) into the four-way
// CoreType enum the instruction emitter dispatches on.
func Flatten(t wit.Type) []CoreType {
	if t == nil {
		return nil
	}
	flat := t.Flat()
	out := make([]CoreType, len(flat))
	for i, f := range flat {
		out[i] = coreTypeOf(f)
	}
	return out
}

func coreTypeOf(t wit.Type) CoreType {
	switch t.(type) {
	case wit.U32, wit.S32, wit.U16, wit.S16, wit.U8, wit.S8, wit.Bool, wit.Char:
		return CoreI32
	case wit.U64, wit.S64:
		return CoreI64
	case wit.F32:
		return CoreF32
	case wit.F64:
		return CoreF64
	case *wit.Pointer:
		return CoreI32
	default:
		// Any other Flat() element (e.g. a synthesized Own/Borrow handle,
		// which wit.Type.Flat renders as U32) is a 32-bit core value.
		return CoreI32
	}
}

// AlignmentBytes and SizeBytes simply forward to the resolved wit.Type;
// they exist on this package so callers never need to import wit
// themselves just to ask "how big is this".
func AlignmentBytes(t wit.Type) int { return int(t.Align()) }
func SizeBytes(t wit.Type) int      { return int(t.Size()) }

// Names resolves a named WIT TypeDef to the Go identifier
// internal/typedef declared for it. Rendering a reference to a named
// type always goes through this rather than recomputing a name with
// internal/ident, since only the typedef emitter's own scope knows
// whether that name collided with something else and had to be
// suffixed.
type Names interface {
	GoName(t *wit.TypeDef) (string, bool)
}

// Render returns the Go source text for t as it should appear at pos,
// importing any supporting package (cmhost, or another generated
// package for a cross-package named type) into file as needed. names
// resolves references to named types; pass nil only in tests that never
// exercise a named TypeDef.
func Render(file *gengo.File, names Names, t wit.Type, pos Position) string {
	switch t := t.(type) {
	case nil:
		return "struct{}"
	case *wit.TypeDef:
		return renderTypeDef(file, names, t, pos)
	case wit.Primitive:
		return renderPrimitive(t)
	default:
		panic(fmt.Sprintf("surface: unknown wit.Type %T", t))
	}
}

func renderPrimitive(p wit.Primitive) string {
	switch p.(type) {
	case wit.Bool:
		return "bool"
	case wit.S8:
		return "int8"
	case wit.U8:
		return "uint8"
	case wit.S16:
		return "int16"
	case wit.U16:
		return "uint16"
	case wit.S32:
		return "int32"
	case wit.U32:
		return "uint32"
	case wit.S64:
		return "int64"
	case wit.U64:
		return "uint64"
	case wit.F32:
		return "float32"
	case wit.F64:
		return "float64"
	case wit.Char:
		return "rune"
	case wit.String:
		return "string"
	default:
		panic(fmt.Sprintf("surface: unknown wit.Primitive %T", p))
	}
}

func renderTypeDef(file *gengo.File, names Names, t *wit.TypeDef, pos Position) string {
	root := t.Root()
	if root.TypeName() != "" {
		// A named type is declared once by internal/typedef; this package
		// only spells a reference to it, via the authoritative name the
		// emitter's own scope assigned (collision suffixing included).
		if names != nil {
			if goName, ok := names.GoName(root); ok {
				return goName
			}
		}
		return ident.Render(gengo.NewScope(nil), root.TypeName(), ident.Public)
	}
	return renderKind(file, names, root.Kind, pos)
}

func renderKind(file *gengo.File, names Names, kind wit.TypeDefKind, pos Position) string {
	switch kind := kind.(type) {
	case wit.Type:
		return Render(file, names, kind, pos)
	case *wit.Pointer:
		return "*" + Render(file, names, kind.Type, Field)
	case *wit.Record:
		return renderRecord(file, names, kind)
	case *wit.Tuple:
		return renderTuple(file, names, kind, pos)
	case *wit.Flags:
		return renderFlags(file, kind)
	case *wit.Enum:
		return renderDiscriminant(len(kind.Cases))
	case *wit.Variant:
		return renderVariant(file, kind)
	case *wit.Result:
		return renderResult(file, names, kind, pos)
	case *wit.Option:
		return renderOption(file, names, kind, pos)
	case *wit.List:
		return renderList(file, names, kind)
	case *wit.Resource:
		return "uint32" // a resource's own handle table index
	case *wit.Own:
		return resourceGoName(names, kind.Type)
	case *wit.Borrow:
		return resourceGoName(names, kind.Type)
	default:
		panic(fmt.Sprintf("surface: unknown wit.TypeDefKind %T", kind))
	}
}

func resourceGoName(names Names, t *wit.TypeDef) string {
	if names != nil {
		if goName, ok := names.GoName(t); ok {
			return goName
		}
	}
	return ident.Render(gengo.NewScope(nil), resourceName(t), ident.Public)
}

func resourceName(t *wit.TypeDef) string {
	if name := t.TypeName(); name != "" {
		return name
	}
	return "resource"
}

func renderRecord(file *gengo.File, names Names, r *wit.Record) string {
	var b strings.Builder
	b.WriteString("struct {\n")
	for _, f := range r.Fields {
		fieldName := ident.Render(gengo.NewScope(nil), f.Name, ident.Public)
		b.WriteString(fieldName)
		b.WriteByte(' ')
		b.WriteString(Render(file, names, f.Type, Field))
		b.WriteByte('\n')
	}
	b.WriteByte('}')
	return b.String()
}

func renderTuple(file *gengo.File, names Names, t *wit.Tuple, pos Position) string {
	n := len(t.Types)
	if n == 0 {
		return "struct{}"
	}
	if n == 1 || n > 4 {
		// Outside the runtime's canned Tuple2..Tuple4 family, fall back to
		// an anonymous struct with positional field names.
		var b strings.Builder
		b.WriteString("struct {\n")
		for i, typ := range t.Types {
			fmt.Fprintf(&b, "F%d %s\n", i, Render(file, names, typ, Field))
		}
		b.WriteByte('}')
		return b.String()
	}
	cm := file.Import(cmhostImportPath)
	var b strings.Builder
	fmt.Fprintf(&b, "%s.Tuple%d[", cm, n)
	for i, typ := range t.Types {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Render(file, names, typ, Field))
	}
	b.WriteByte(']')
	return b.String()
}

// renderFlags is reached only for an anonymous flags<...> type (no WIT
// name of its own); named flags types are rendered by renderTypeDef
// before ever reaching here, since the typedef emitter declares each one
// as an alias of cmhost.Flags plus one constant per flag.
func renderFlags(file *gengo.File, f *wit.Flags) string {
	return file.Import(cmhostImportPath) + ".Flags"
}

func renderDiscriminant(numCases int) string {
	switch {
	case numCases <= 1<<8:
		return "uint8"
	case numCases <= 1<<16:
		return "uint16"
	default:
		return "uint32"
	}
}

func renderVariant(file *gengo.File, v *wit.Variant) string {
	cm := file.Import(cmhostImportPath)
	return cm + ".Variant"
}

func renderResult(file *gengo.File, names Names, r *wit.Result, pos Position) string {
	if pos == Return && isPrimitiveOrUnit(r.OK) {
		return Render(file, names, r.OK, Field)
	}
	cm := file.Import(cmhostImportPath)
	return fmt.Sprintf("%s.ValueOrError[%s]", cm, Render(file, names, r.OK, Field))
}

func renderOption(file *gengo.File, names Names, o *wit.Option, pos Position) string {
	switch pos {
	case Return:
		cm := file.Import(cmhostImportPath)
		return fmt.Sprintf("%s.ValueOrOk[%s]", cm, Render(file, names, o.Type, Field))
	default:
		return "*" + Render(file, names, o.Type, Field)
	}
}

func renderList(file *gengo.File, names Names, l *wit.List) string {
	if _, ok := l.Type.(wit.U8); ok {
		return "[]byte"
	}
	return "[]" + Render(file, names, l.Type, Element)
}

func isPrimitiveOrUnit(t wit.Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(wit.Primitive)
	return ok
}

// DefaultValue returns the Go zero-value expression for t, used by the
// instruction emitter when materializing a "none"/default before a
// Canonical ABI lift writes into it.
func DefaultValue(file *gengo.File, names Names, t wit.Type) string {
	switch t := t.(type) {
	case nil:
		return "struct{}{}"
	case wit.String:
		return `""`
	case wit.Bool:
		return "false"
	case wit.Primitive:
		return "0"
	default:
		return Render(file, names, t, Field) + "{}"
	}
}

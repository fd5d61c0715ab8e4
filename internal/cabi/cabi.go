// Package cabi is the instruction emitter at the center of the generator
// (SPEC_FULL.md §4.6): one method per Canonical ABI instruction kind, each
// popping a fixed arity of operands off an internal/operand.Stack,
// appending the Go statements that perform the lift/lower/call it
// represents, and pushing its result operands back. internal/funcgen
// drives a Builder through the instruction stream a wit-tools-go ABI
// walker produces for one function.
//
// There is no teacher analog for this package — the teacher's own
// generator recurses directly over an already-resolved wit.Type tree,
// emitting whole expressions in one pass, rather than simulating a
// Canonical ABI instruction stream against a stack machine. This is new
// design work, grounded directly in spec.md §4.6's instruction contracts
// and in the teacher's abi package (github.com/bytecodealliance/
// wasm-tools-go/abi, specifically its Realloc/Align helpers) for what the
// host side of cabi_realloc-driven allocation has to look like.
package cabi

import (
	"fmt"
	"strings"

	"github.com/wasmgravity/gravity/internal/gengo"
	"github.com/wasmgravity/gravity/internal/operand"
	"github.com/wasmgravity/gravity/internal/surface"
)

// Builder accumulates the Go statements for one function body, driving
// stack against the instructions a Canonical ABI walker issues.
// instanceVar and ctxVar name the *wazerohost.Instance and context.Context
// local variables the enclosing function declaration provides; errorReturn
// renders the full "return ..., err" statement for the enclosing
// function's actual signature, since only internal/funcgen knows it.
type Builder struct {
	file  *gengo.File
	stack *operand.Stack
	names surface.Names

	instanceVar string
	ctxVar      string
	errorReturn func(errVar string) string

	cleanups []string
}

// New returns a Builder emitting into file, tracking operands on stack,
// resolving named-type references through names.
func New(file *gengo.File, stack *operand.Stack, names surface.Names, instanceVar, ctxVar string, errorReturn func(string) string) *Builder {
	return &Builder{
		file:        file,
		stack:       stack,
		names:       names,
		instanceVar: instanceVar,
		ctxVar:      ctxVar,
		errorReturn: errorReturn,
	}
}

func (b *Builder) emit(format string, args ...any) {
	fmt.Fprintf(&emitBuf{b.file}, format, args...)
}

// Emit writes a formatted Go statement into the function body being
// built. Exported for internal/funcgen's container param/result walks
// (record field recursion, variant join-shape switches), which need to
// drive statements directly rather than through a single fixed-arity
// instruction method.
func (b *Builder) Emit(format string, args ...any) {
	b.emit(format, args...)
}

// Stack exposes the operand stack the Builder drives, so internal/funcgen
// can push/pop operands itself while emitting the multi-statement
// sequences (record/tuple/variant param lowering) that don't reduce to a
// single Builder method call.
func (b *Builder) Stack() *operand.Stack { return b.stack }

// File exposes the Go file being emitted into, so internal/funcgen can
// import packages (e.g. "errors", cmhost) while driving a container
// lift/lower sequence.
func (b *Builder) File() *gengo.File { return b.file }

// emitBuf adapts gengo.File's (n int, err error)-less WriteString to the
// io.Writer shape fmt.Fprintf needs.
type emitBuf struct{ file *gengo.File }

func (w *emitBuf) Write(p []byte) (int, error) {
	w.file.Write(p)
	return len(p), nil
}

// checkErr emits a fallible call's error check, returning via errorExit so
// every cleanup registered before this point still runs on this early
// return (spec.md §4.6, §8 property 6).
func (b *Builder) checkErr(errVar string) {
	b.emit("if %s != nil {\n%s\n}\n", errVar, b.errorExit(errVar))
}

// cleanupsLIFO returns the cleanups registered so far, most-recently
// registered first.
func (b *Builder) cleanupsLIFO() []string {
	out := make([]string, len(b.cleanups))
	for i, c := range b.cleanups {
		out[len(out)-1-i] = c
	}
	return out
}

// errorExit emits every cleanup registered so far, LIFO, followed by the
// enclosing function's actual error return. Every early error-path exit
// calls this instead of errorReturn directly, so a failure partway through
// a function still frees whatever earlier lifts/lowers already allocated
// (spec.md §4.6 "insert cleanups ... immediately before every
// function-exit statement including early returns").
func (b *Builder) errorExit(errVar string) string {
	var out strings.Builder
	for _, c := range b.cleanupsLIFO() {
		out.WriteString(c)
		out.WriteString("\n")
	}
	out.WriteString(b.errorReturn(errVar))
	return out.String()
}

// --- Integer conversions -----------------------------------------------

// IntConvert pops one operand and pushes it converted to dstGoType. Go's
// own numeric conversions already perform, in order, truncation to the
// narrower width and then sign- or zero-extension per the destination
// type's signedness, so the emitted statement is a single type
// conversion expression (spec.md §4.6 "Integer conversions").
func (b *Builder) IntConvert(dstGoType string) string {
	src := b.stack.Pop1()
	dst := b.stack.PushFresh("v", dstGoType)
	b.emit("%s := %s(%s)\n", dst, dstGoType, src.Name)
	return dst
}

// --- Float bitcasts ------------------------------------------------------

// BitcastF32FromI32 pops an int32/uint32 and pushes its bit pattern
// reinterpreted as float32, never an arithmetic conversion.
func (b *Builder) BitcastF32FromI32() string {
	src := b.stack.Pop1()
	m := b.file.Import("math")
	dst := b.stack.PushFresh("f", "float32")
	b.emit("%s := %s.Float32frombits(uint32(%s))\n", dst, m, src.Name)
	return dst
}

// BitcastI32FromF32 pops a float32 and pushes its bit pattern as uint32.
func (b *Builder) BitcastI32FromF32() string {
	src := b.stack.Pop1()
	m := b.file.Import("math")
	dst := b.stack.PushFresh("bits", "uint32")
	b.emit("%s := %s.Float32bits(%s)\n", dst, m, src.Name)
	return dst
}

// BitcastF64FromI64 pops an int64/uint64 and pushes its bit pattern
// reinterpreted as float64.
func (b *Builder) BitcastF64FromI64() string {
	src := b.stack.Pop1()
	m := b.file.Import("math")
	dst := b.stack.PushFresh("f", "float64")
	b.emit("%s := %s.Float64frombits(uint64(%s))\n", dst, m, src.Name)
	return dst
}

// BitcastI64FromF64 pops a float64 and pushes its bit pattern as uint64.
func (b *Builder) BitcastI64FromF64() string {
	src := b.stack.Pop1()
	m := b.file.Import("math")
	dst := b.stack.PushFresh("bits", "uint64")
	b.emit("%s := %s.Float64bits(%s)\n", dst, m, src.Name)
	return dst
}

// --- Strings --------------------------------------------------------------

// StringLift pops (ptr, len) and pushes a string read from the instance's
// linear memory. Per spec.md §4.6's edge-case policy, ptr==0 && len==0
// yields the empty string with no read and no cleanup registered; every
// other string registers a cabi_realloc(ptr, len, 1, 0) cleanup to be
// freed at function exit.
func (b *Builder) StringLift() string {
	ops := b.stack.Pop(2)
	ptr, length := ops[0], ops[1]
	s := b.stack.PushFresh("s", "string")
	errVar := b.stack.Fresh("err")
	b.emit("var %s string\n", s)
	b.emit("if %s != 0 || %s != 0 {\n", ptr.Name, length.Name)
	b.emit("var %s error\n", errVar)
	b.emit("%s, %s = %s.ReadString(%s, %s)\n", s, errVar, b.instanceVar, ptr.Name, length.Name)
	b.checkErr(errVar)
	b.cleanups = append(b.cleanups, fmt.Sprintf(
		"if %s != 0 || %s != 0 {\nif _, err := %s.Realloc(%s, %s, %s, 1, 0); err != nil {\n%s\n}\n}",
		ptr.Name, length.Name, b.instanceVar, b.ctxVar, ptr.Name, length.Name, b.errorExit("err")))
	b.emit("}\n")
	return s
}

// StringLower pops a string and pushes (ptr, len): an allocation of
// len(s) bytes via cabi_realloc(0, 0, 1, len(s)) followed by a byte-copy
// into guest memory. No cleanup is registered; ownership of the memory
// transfers to the callee.
func (b *Builder) StringLower() (ptr, length string) {
	src := b.stack.Pop1()
	ptr = b.stack.PushFresh("ptr", "uint32")
	length = b.stack.PushFresh("len", "uint32")
	errVar := b.stack.Fresh("err")
	b.emit("%s := uint32(len(%s))\n", length, src.Name)
	b.emit("var %s error\n", errVar)
	b.emit("%s, %s = %s.Realloc(%s, 0, 0, 1, %s)\n", ptr, errVar, b.instanceVar, b.ctxVar, length)
	b.checkErr(errVar)
	b.emit("if %s := %s.Write(%s, []byte(%s)); %s != nil {\n%s\n}\n",
		errVar, b.instanceVar, ptr, src.Name, errVar, b.errorExit(errVar))
	return ptr, length
}

// --- Lists ------------------------------------------------------------

// ListLiftElement pops (ptr, len) and pushes a []elemGoType built from a
// loop that reads len elements at stride elemSize, aligned to elemAlign,
// invoking lift for each element's byte offset. Registers a cleanup that
// frees ptr by len*elemSize bytes. Callers recurse into lift to emit the
// per-element lift instruction sequence against the same Builder.
func (b *Builder) ListLiftElement(elemGoType string, elemSize, elemAlign int, lift func(elemOffset string) string) string {
	ops := b.stack.Pop(2)
	ptr, length := ops[0], ops[1]
	out := b.stack.PushFresh("list", "[]"+elemGoType)
	idx := b.stack.Fresh("i")
	off := b.stack.Fresh("off")

	b.emit("%s := make([]%s, %s)\n", out, elemGoType, length.Name)
	b.emit("for %s := uint32(0); %s < %s; %s++ {\n", idx, idx, length.Name, idx)
	b.emit("%s := %s + %s*%d\n", off, ptr.Name, idx, elemSize)
	elem := lift(off)
	b.emit("%s[%s] = %s\n", out, idx, elem)
	b.emit("}\n")

	b.cleanups = append(b.cleanups, fmt.Sprintf(
		"if _, err := %s.Realloc(%s, %s, %s, %d, 0); err != nil {\n%s\n}",
		b.instanceVar, b.ctxVar, ptr.Name, fmt.Sprintf("%s*%d", length.Name, elemSize), elemAlign, b.errorExit("err")))
	return out
}

// ListLowerBytes pops a []byte and pushes (ptr, len): the list<u8>
// fast path, sharing StringLower's allocate-then-copy shape.
func (b *Builder) ListLowerBytes() (ptr, length string) {
	src := b.stack.Pop1()
	ptr = b.stack.PushFresh("ptr", "uint32")
	length = b.stack.PushFresh("len", "uint32")
	errVar := b.stack.Fresh("err")
	b.emit("%s := uint32(len(%s))\n", length, src.Name)
	b.emit("var %s error\n", errVar)
	b.emit("%s, %s = %s.Realloc(%s, 0, 0, 1, %s)\n", ptr, errVar, b.instanceVar, b.ctxVar, length)
	b.checkErr(errVar)
	b.emit("if %s := %s.Write(%s, %s); %s != nil {\n%s\n}\n",
		errVar, b.instanceVar, ptr, src.Name, errVar, b.errorExit(errVar))
	return ptr, length
}

// --- Records, variants, options, results --------------------------------

// RecordLift pops one operand per field, in declaration order, and pushes
// a struct literal of goType.
func (b *Builder) RecordLift(goType string, fieldNames []string) string {
	fields := b.stack.Pop(len(fieldNames))
	out := b.stack.PushFresh("rec", goType)
	var lits strings.Builder
	for i, f := range fieldNames {
		fmt.Fprintf(&lits, "%s: %s, ", f, fields[i].Name)
	}
	b.emit("%s := %s{%s}\n", out, goType, lits.String())
	return out
}

// VariantCase describes one case of a variant being lifted: the
// zero-based discriminant, the constructor to call when that
// discriminant is selected, and (if the case carries a payload) the lift
// of that payload, run against the same payload operand(s).
type VariantCase struct {
	Tag         int
	Constructor string
	LiftPayload func() string // nil if the case has no payload
}

// VariantLift pops the discriminant operand and emits a switch over it,
// invoking each case's payload lift (if any) and the matching
// constructor, pushing one operand of goType.
func (b *Builder) VariantLift(goType string, cases []VariantCase) string {
	disc := b.stack.Pop1()
	out := b.stack.PushFresh("v", goType)
	b.emit("var %s %s\n", out, goType)
	b.emit("switch %s {\n", disc.Name)
	for _, c := range cases {
		b.emit("case %d:\n", c.Tag)
		if c.LiftPayload != nil {
			payload := c.LiftPayload()
			b.emit("%s = %s(%s)\n", out, c.Constructor, payload)
		} else {
			b.emit("%s = %s()\n", out, c.Constructor)
		}
	}
	b.emit("}\n")
	return out
}

// OptionLiftField pops the discriminant and, if present, the payload
// operand already lifted by liftPayload, pushing a *elemGoType: non-nil
// for "some", nil for "none". Used for option<T> outside return position
// (internal/surface's Field rendering).
func (b *Builder) OptionLiftField(elemGoType string, liftPayload func() string) string {
	disc := b.stack.Pop1()
	out := b.stack.PushFresh("opt", "*"+elemGoType)
	b.emit("var %s *%s\n", out, elemGoType)
	b.emit("if %s != 0 {\n", disc.Name)
	payload := liftPayload()
	b.emit("%s = &%s\n", out, payload)
	b.emit("}\n")
	return out
}

// OptionLiftReturn is OptionLiftField's return-position counterpart: it
// pushes (value, present bool) per spec.md §4.6's "materialise as a
// (value, presence) pair" rule, rather than a pointer.
func (b *Builder) OptionLiftReturn(elemGoType string, liftPayload func() string) (value, present string) {
	disc := b.stack.Pop1()
	present = b.stack.PushFresh("present", "bool")
	value = b.stack.PushFresh("val", elemGoType)
	b.emit("var %s %s\n", value, elemGoType)
	b.emit("%s := %s != 0\n", present, disc.Name)
	b.emit("if %s {\n", present)
	payload := liftPayload()
	b.emit("%s = %s\n", value, payload)
	b.emit("}\n")
	return value, present
}

// ResultLiftReturn pops raw's full result<T,E> operand set — the
// discriminant CallWasm pushed first, then any join-shape payload slots —
// and branches on it: liftOK/liftErr each receive the payload slots (the
// discriminant excluded) and return the Go expression to assign on their
// side. Pushes (value, error) per spec.md §4.6's return-position
// result<T,E> rule.
func (b *Builder) ResultLiftReturn(okGoType string, raw int, liftOK, liftErr func(payload []operand.Operand) string) (value, errv string) {
	slots := b.stack.Pop(raw)
	disc, payload := slots[0], slots[1:]
	value = b.stack.PushFresh("val", okGoType)
	errv = b.stack.PushFresh("err", "error")
	b.emit("var %s %s\n", value, okGoType)
	b.emit("var %s error\n", errv)
	b.emit("if %s == 0 {\n", disc.Name)
	ok := liftOK(payload)
	b.emit("%s = %s\n", value, ok)
	b.emit("} else {\n")
	errExpr := liftErr(payload)
	b.emit("%s = %s\n", errv, errExpr)
	b.emit("}\n")
	return value, errv
}

// StringLiftFrom reads a string from ptr/len operands the caller already
// holds, rather than popping them off the top of the stack. Used by
// result<T,E>'s OK/ERR arms, which lift conditionally from the same
// physical payload slots rather than draining the stack unconditionally
// the way StringLift does.
func (b *Builder) StringLiftFrom(ptr, length operand.Operand) string {
	s := b.stack.Fresh("s")
	errVar := b.stack.Fresh("err")
	b.emit("var %s string\n", s)
	b.emit("if %s != 0 || %s != 0 {\n", ptr.Name, length.Name)
	b.emit("var %s error\n", errVar)
	b.emit("%s, %s = %s.ReadString(%s, %s)\n", s, errVar, b.instanceVar, ptr.Name, length.Name)
	b.checkErr(errVar)
	b.cleanups = append(b.cleanups, fmt.Sprintf(
		"if %s != 0 || %s != 0 {\nif _, err := %s.Realloc(%s, %s, %s, 1, 0); err != nil {\n%s\n}\n}",
		ptr.Name, length.Name, b.instanceVar, b.ctxVar, ptr.Name, length.Name, b.errorExit("err")))
	b.emit("}\n")
	return s
}

// PrimitiveLiftFrom narrows an already-held core-slot operand to
// dstGoType, without popping it off the stack (the result<T,E> payload
// operands were already popped, as a set, by ResultLiftReturn).
func (b *Builder) PrimitiveLiftFrom(src operand.Operand, dstGoType string) string {
	dst := b.stack.Fresh("v")
	b.emit("%s := %s(%s)\n", dst, dstGoType, src.Name)
	return dst
}

// --- Calls ---------------------------------------------------------------

// CallWasm pops len(argOperands) flattened core-Wasm values (already
// lowered) and emits a call to the named export, pushing one operand per
// flattened result.
func (b *Builder) CallWasm(exportName string, resultCoreTypes []surface.CoreType) []string {
	args := b.stack.Drain()
	var argList strings.Builder
	for i, a := range args {
		if i > 0 {
			argList.WriteString(", ")
		}
		fmt.Fprintf(&argList, "uint64(%s)", a.Name)
	}
	resultsVar := b.stack.Fresh("results")
	errVar := b.stack.Fresh("err")
	b.emit("%s, %s := %s.CallFunction(%s, %q, %s)\n", resultsVar, errVar, b.instanceVar, b.ctxVar, exportName, argList.String())
	b.checkErr(errVar)

	out := make([]string, len(resultCoreTypes))
	for i, ct := range resultCoreTypes {
		name := b.stack.PushFresh("r", coreGoType(ct))
		b.emit("%s := %s(%s[%d])\n", name, coreGoType(ct), resultsVar, i)
		out[i] = name
	}
	return out
}

func coreGoType(ct surface.CoreType) string {
	switch ct {
	case surface.CoreI64:
		return "uint64"
	case surface.CoreF32:
		return "float32"
	case surface.CoreF64:
		return "float64"
	default:
		// uint32, not int32: the overwhelmingly common use of a flattened
		// i32 slot in this generator is a pointer, length, or
		// discriminant, all unsigned; a signed primitive result narrows
		// and resigns explicitly via IntConvert before it reaches a
		// caller.
		return "uint32"
	}
}

// --- Return via pointer --------------------------------------------------

// ReturnViaPointer emits the out-parameter path used when a function's
// flattened result exceeds the Canonical ABI's 16-slot limit: an
// allocation of a size-byte, align-aligned buffer, a call passing the
// buffer pointer as an extra trailing argument (already expected to be on
// the stack by the caller's CallWasm invocation), then readBack for each
// field's post-call recursive lift. Registers a cleanup freeing the
// buffer.
func (b *Builder) ReturnViaPointer(size, align int, readBack func(bufPtr string)) string {
	ptr := b.stack.PushFresh("retptr", "uint32")
	errVar := b.stack.Fresh("err")
	b.emit("var %s error\n", errVar)
	b.emit("%s, %s = %s.Realloc(%s, 0, 0, %d, %d)\n", ptr, errVar, b.instanceVar, b.ctxVar, align, size)
	b.checkErr(errVar)
	b.cleanups = append(b.cleanups, fmt.Sprintf(
		"if _, err := %s.Realloc(%s, %s, %d, %d, 0); err != nil {\n%s\n}",
		b.instanceVar, b.ctxVar, ptr, size, align, b.errorExit("err")))
	readBack(ptr)
	return ptr
}

// --- Resources -------------------------------------------------------

// cmhostImportPath mirrors internal/surface's constant; cabi needs it to
// convert a generated resource handle type to the underlying
// cmhost.Handle the generic ResourceTable methods take.
const cmhostImportPath = "github.com/wasmgravity/gravity/runtime/cmhost"

// ResourceNew pops the record value being boxed and emits a Store into
// the named table field, pushing the resulting handle. Owned handles
// additionally register a drop-at-exit cleanup; borrowed handles (own=
// false) do not, matching spec.md §4.6's ownership rule.
func (b *Builder) ResourceNew(tableField, goHandleType string, own bool) string {
	value := b.stack.Pop1()
	cm := b.file.Import(cmhostImportPath)
	handle := b.stack.PushFresh("h", goHandleType)
	b.emit("%s := %s(%s.Store(%s))\n", handle, goHandleType, tableField, value.Name)
	if own {
		b.cleanups = append(b.cleanups, fmt.Sprintf("%s.Remove(%s.Handle(%s))", tableField, cm, handle))
	}
	return handle
}

// ResourceRep pops a handle and emits a table lookup, pushing the
// resource's underlying Go value.
func (b *Builder) ResourceRep(tableField, goValueType string) string {
	handle := b.stack.Pop1()
	cm := b.file.Import(cmhostImportPath)
	value := b.stack.PushFresh("rep", goValueType)
	okVar := b.stack.Fresh("ok")
	b.emit("%s, %s := %s.Get(%s.Handle(%s))\n", value, okVar, tableField, cm, handle.Name)
	b.emit("_ = %s\n", okVar)
	return value
}

// ResourceDrop pops a handle and emits a Remove call against the owning
// table.
func (b *Builder) ResourceDrop(tableField string) {
	handle := b.stack.Pop1()
	cm := b.file.Import(cmhostImportPath)
	b.emit("%s.Remove(%s.Handle(%s))\n", tableField, cm, handle.Name)
}

// --- Epilogue --------------------------------------------------------

// Epilogue returns the accumulated cleanup statements in LIFO order: the
// most recently registered cleanup runs first. internal/funcgen inserts
// the result immediately before every function-exit statement, including
// early returns on the error paths checkErr generated.
func (b *Builder) Epilogue() []string {
	return b.cleanupsLIFO()
}

// Names exposes the name resolver the Builder was constructed with, so
// internal/funcgen can render parameter/result surface types through the
// same names internal/cabi's lift/lower calls reference.
func (b *Builder) Names() surface.Names { return b.names }

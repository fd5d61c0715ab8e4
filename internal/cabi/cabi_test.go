package cabi_test

import (
	"strings"
	"testing"

	"github.com/wasmgravity/gravity/internal/cabi"
	"github.com/wasmgravity/gravity/internal/gengo"
	"github.com/wasmgravity/gravity/internal/operand"
)

func newBuilder(t *testing.T) (*cabi.Builder, *gengo.File) {
	t.Helper()
	pkg := gengo.NewPackage("example.com/gen")
	file := pkg.File("gen.go")
	stack := operand.New(nil)
	errorReturn := func(errVar string) string { return "return 0, " + errVar }
	return cabi.New(file, stack, nil, "in", "ctx", errorReturn), file
}

func TestIntConvert(t *testing.T) {
	b, file := newBuilder(t)
	b.Stack().Push(operand.Operand{Name: "raw", GoType: "uint32"})
	name := b.IntConvert("int8")
	if name == "" {
		t.Fatal("IntConvert returned empty name")
	}
	if !strings.Contains(string(file.Content), "int8(") {
		t.Errorf("expected an int8(...) conversion, got:\n%s", file.Content)
	}
}

func TestBitcastF32FromI32(t *testing.T) {
	b, file := newBuilder(t)
	b.Stack().Push(operand.Operand{Name: "raw", GoType: "uint32"})
	b.BitcastF32FromI32()
	src := string(file.Content)
	if !strings.Contains(src, "Float32frombits") {
		t.Errorf("expected Float32frombits, got:\n%s", src)
	}
}

func TestStringLowerAllocatesViaRealloc(t *testing.T) {
	b, file := newBuilder(t)
	b.Stack().Push(operand.Operand{Name: "s", GoType: "string"})
	ptr, length := b.StringLower()
	if ptr == "" || length == "" {
		t.Fatal("StringLower returned empty names")
	}
	src := string(file.Content)
	if !strings.Contains(src, "cabi_realloc") && !strings.Contains(src, "Realloc") {
		t.Errorf("expected a Realloc allocation call, got:\n%s", src)
	}
}

func TestCallWasmEmitsExportedFunctionCall(t *testing.T) {
	b, file := newBuilder(t)
	b.Stack().Push(operand.Operand{Name: "x", GoType: "uint32"})
	b.CallWasm("add-one", nil)
	src := string(file.Content)
	if !strings.Contains(src, `"add-one"`) {
		t.Errorf("expected call to reference export name, got:\n%s", src)
	}
	if !strings.Contains(src, "CallFunction") {
		t.Errorf("expected CallFunction call, got:\n%s", src)
	}
}

func TestEpilogueIsLIFO(t *testing.T) {
	b, _ := newBuilder(t)
	b.Stack().Push(operand.Operand{Name: "first", GoType: "First"})
	b.ResourceNew("f.first", "First", true)
	b.Stack().Push(operand.Operand{Name: "second", GoType: "Second"})
	b.ResourceNew("f.second", "Second", true)
	cleanups := b.Epilogue()
	if len(cleanups) != 2 {
		t.Fatalf("two owned ResourceNew calls should register two cleanups, got %d", len(cleanups))
	}
	if !strings.Contains(cleanups[0], "f.second") || !strings.Contains(cleanups[1], "f.first") {
		t.Errorf("expected the last-registered cleanup first, got %q", cleanups)
	}
}

func TestResourceNewRegistersCleanupWhenOwned(t *testing.T) {
	b, _ := newBuilder(t)
	b.Stack().Push(operand.Operand{Name: "value", GoType: "MyResourceValue"})
	b.ResourceNew("f.counters", "Counter", true)
	cleanups := b.Epilogue()
	if len(cleanups) != 1 {
		t.Fatalf("owned ResourceNew should register one cleanup, got %d", len(cleanups))
	}
	if !strings.Contains(cleanups[0], "Remove") {
		t.Errorf("expected a Remove cleanup, got %q", cleanups[0])
	}
}

func TestResourceNewBorrowedRegistersNoCleanup(t *testing.T) {
	b, _ := newBuilder(t)
	b.Stack().Push(operand.Operand{Name: "value", GoType: "MyResourceValue"})
	b.ResourceNew("f.counters", "Counter", false)
	if len(b.Epilogue()) != 0 {
		t.Error("borrowed ResourceNew should not register a cleanup")
	}
}

// TestEarlyErrorReturnDrainsCleanups guards against a regression of the
// early-return cleanup-skipping bug (spec.md §4.6, §8 property 6): a
// fallible call's error check must drain every cleanup registered before
// it, not just jump straight to the error return.
func TestEarlyErrorReturnDrainsCleanups(t *testing.T) {
	b, file := newBuilder(t)
	b.Stack().Push(operand.Operand{Name: "value", GoType: "MyResourceValue"})
	b.ResourceNew("f.counters", "Counter", true) // registers one cleanup
	b.IntConvert("uint32")
	b.CallWasm("add-one", nil) // its internal checkErr must drain the cleanup above

	src := string(file.Content)
	ifIdx := strings.Index(src, "if err != nil {")
	if ifIdx < 0 {
		t.Fatalf("expected an error check after CallWasm, got:\n%s", src)
	}
	if !strings.Contains(src[ifIdx:], "Remove") {
		t.Errorf("expected the early error return to drain the earlier ResourceNew cleanup, got:\n%s", src[ifIdx:])
	}
}

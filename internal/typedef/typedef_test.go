package typedef_test

import (
	"strings"
	"testing"

	"github.com/bytecodealliance/wasm-tools-go/wit"

	"github.com/wasmgravity/gravity/internal/gengo"
	"github.com/wasmgravity/gravity/internal/typedef"
)

func newFile(t *testing.T) *gengo.File {
	t.Helper()
	pkg := gengo.NewPackage("example.com/gen")
	return pkg.File("gen.go")
}

func namedTypeDef(name string, kind wit.TypeDefKind) *wit.TypeDef {
	return &wit.TypeDef{Name: &name, Kind: kind}
}

func TestDeclareRecord(t *testing.T) {
	file := newFile(t)
	e := typedef.New(file.Package)
	td := namedTypeDef("point", &wit.Record{
		Fields: []wit.Field{
			{Name: "x", Type: wit.U32{}},
			{Name: "y", Type: wit.U32{}},
		},
	})

	goName := e.Declare(file, td)
	if goName != "Point" {
		t.Errorf("Declare record name = %q, want Point", goName)
	}
	src := string(file.Content)
	if !strings.Contains(src, "type Point struct") {
		t.Errorf("missing struct declaration in:\n%s", src)
	}
	if got, ok := e.GoName(td); !ok || got != "Point" {
		t.Errorf("GoName after Declare = (%q, %v), want (Point, true)", got, ok)
	}
}

func TestDeclareIsIdempotent(t *testing.T) {
	file := newFile(t)
	e := typedef.New(file.Package)
	td := namedTypeDef("point", &wit.Record{Fields: []wit.Field{{Name: "x", Type: wit.U32{}}}})

	first := e.Declare(file, td)
	lenAfterFirst := len(file.Content)
	second := e.Declare(file, td)
	if first != second {
		t.Errorf("Declare called twice returned different names %q, %q", first, second)
	}
	if len(file.Content) != lenAfterFirst {
		t.Error("second Declare call emitted more source")
	}
}

func TestDeclareEnum(t *testing.T) {
	file := newFile(t)
	e := typedef.New(file.Package)
	td := namedTypeDef("color", &wit.Enum{
		Cases: []wit.EnumCase{{Name: "red"}, {Name: "green"}, {Name: "blue"}},
	})

	goName := e.Declare(file, td)
	src := string(file.Content)
	if !strings.Contains(src, "type Color uint8") {
		t.Errorf("expected uint8-backed enum, got:\n%s", src)
	}
	if !strings.Contains(src, "ColorRed") || !strings.Contains(src, "ColorGreen") || !strings.Contains(src, "ColorBlue") {
		t.Errorf("expected case-prefixed constants, got:\n%s", src)
	}
	_ = goName
}

func TestDeclareVariantWithPayload(t *testing.T) {
	file := newFile(t)
	e := typedef.New(file.Package)
	td := namedTypeDef("shape", &wit.Variant{
		Cases: []wit.Case{
			{Name: "circle", Type: wit.F32{}},
			{Name: "point", Type: nil},
		},
	})

	goName := e.Declare(file, td)
	src := string(file.Content)
	if !strings.Contains(src, "func ShapeCircle(payload float32) Shape") {
		t.Errorf("missing payload constructor in:\n%s", src)
	}
	if !strings.Contains(src, "func (v Shape) Circle() *float32") {
		t.Errorf("missing payload case getter in:\n%s", src)
	}
	if !strings.Contains(src, "func ShapePoint() Shape") {
		t.Errorf("missing payload-less constructor in:\n%s", src)
	}
	if !strings.Contains(src, "func (v Shape) IsPoint() bool") {
		t.Errorf("missing payload-less case predicate in:\n%s", src)
	}
	_ = goName
}

func TestDeclareFlags(t *testing.T) {
	file := newFile(t)
	e := typedef.New(file.Package)
	td := namedTypeDef("permissions", &wit.Flags{
		Flags: []wit.Flag{{Name: "read"}, {Name: "write"}, {Name: "execute"}},
	})

	e.Declare(file, td)
	src := string(file.Content)
	if !strings.Contains(src, "PermissionsRead") || !strings.Contains(src, "1 << iota") {
		t.Errorf("expected iota-based bit constants, got:\n%s", src)
	}
}

func TestDeclareResource(t *testing.T) {
	file := newFile(t)
	e := typedef.New(file.Package)
	td := namedTypeDef("counter", &wit.Resource{})

	goName := e.Declare(file, td)
	if goName != "Counter" {
		t.Errorf("Declare resource name = %q, want Counter", goName)
	}
	src := string(file.Content)
	if !strings.Contains(src, "type Counter cmhost.Handle") {
		t.Errorf("expected a Handle-backed resource type, got:\n%s", src)
	}
	if !strings.Contains(src, "CounterTable") {
		t.Errorf("expected a generated resource table type, got:\n%s", src)
	}
}

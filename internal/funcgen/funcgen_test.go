package funcgen_test

import (
	"strings"
	"testing"

	"github.com/bytecodealliance/wasm-tools-go/wit"

	"github.com/wasmgravity/gravity/internal/funcgen"
	"github.com/wasmgravity/gravity/internal/gengo"
)

func TestDeclarePrimitiveRoundtrip(t *testing.T) {
	pkg := gengo.NewPackage("example.com/gen")
	file := pkg.File("gen.go")

	fn := &wit.Function{
		Name:    "s8-roundtrip",
		Params:  []wit.Param{{Name: "x", Type: wit.S8{}}},
		Results: []wit.Param{{Type: wit.S8{}}},
	}

	funcgen.Declare(file, "(w *World)", "S8Roundtrip", fn, "s8-roundtrip", "w.instance", "ctx", nil)

	src := string(file.Content)
	if !strings.Contains(src, "func (w *World) S8Roundtrip(ctx context.Context, x int8) (int8, error)") {
		t.Errorf("unexpected signature, got:\n%s", src)
	}
	if !strings.Contains(src, "CallFunction") {
		t.Errorf("expected a CallFunction call, got:\n%s", src)
	}
	if !strings.Contains(src, `"s8-roundtrip"`) {
		t.Errorf("expected export name reference, got:\n%s", src)
	}
}

// TestDeclareResultStringStringLiftsRealPayloads guards against the
// result<string,string> regression where the OK arm read the discriminant
// as the string and the ERR arm discarded the real message for a
// hard-coded sentinel.
func TestDeclareResultStringStringLiftsRealPayloads(t *testing.T) {
	pkg := gengo.NewPackage("example.com/gen")
	file := pkg.File("gen.go")

	result := &wit.TypeDef{Kind: &wit.Result{OK: wit.String{}, Err: wit.String{}}}
	fn := &wit.Function{
		Name:    "hello",
		Results: []wit.Param{{Type: result}},
	}

	funcgen.Declare(file, "(w *World)", "Hello", fn, "hello", "w.instance", "ctx", nil)

	src := string(file.Content)
	if strings.Contains(src, `"call failed"`) {
		t.Errorf("ERR arm should lift the real message, not a hard-coded sentinel, got:\n%s", src)
	}
	if !strings.Contains(src, "errors.New(") {
		t.Errorf("expected the ERR arm to wrap the lifted message via errors.New, got:\n%s", src)
	}
	if !strings.Contains(src, "ReadString") {
		t.Errorf("expected the OK arm to read its string payload from memory, got:\n%s", src)
	}
	if !strings.Contains(src, "func (w *World) Hello(ctx context.Context) (string, error)") {
		t.Errorf("unexpected signature, got:\n%s", src)
	}
}

// TestDeclareRecordParamLowersFieldByField guards against the record
// parameter regression where a container parameter was pushed as one
// opaque operand and CallWasm emitted an uncompilable uint64(<struct>).
func TestDeclareRecordParamLowersFieldByField(t *testing.T) {
	pkg := gengo.NewPackage("example.com/gen")
	file := pkg.File("gen.go")

	foo := &wit.TypeDef{
		Name: stringPtr("foo"),
		Kind: &wit.Record{Fields: []wit.Field{
			{Name: "x", Type: wit.U32{}},
			{Name: "y", Type: wit.String{}},
		}},
	}
	fn := &wit.Function{
		Name:   "modify-foo",
		Params: []wit.Param{{Name: "f", Type: foo}},
	}

	funcgen.Declare(file, "(w *World)", "ModifyFoo", fn, "modify-foo", "w.instance", "ctx", nil)

	src := string(file.Content)
	if strings.Contains(src, "uint64(f)") {
		t.Errorf("record parameter must not be pushed as one opaque operand, got:\n%s", src)
	}
	if !strings.Contains(src, "f.X") || !strings.Contains(src, "f.Y") {
		t.Errorf("expected field-by-field lowering referencing f.X and f.Y, got:\n%s", src)
	}
}

func stringPtr(s string) *string { return &s }

func TestDeclareNoResult(t *testing.T) {
	pkg := gengo.NewPackage("example.com/gen")
	file := pkg.File("gen.go")

	fn := &wit.Function{
		Name:   "log-message",
		Params: []wit.Param{{Name: "msg", Type: wit.String{}}},
	}

	funcgen.Declare(file, "(w *World)", "LogMessage", fn, "log-message", "w.instance", "ctx", nil)

	src := string(file.Content)
	if !strings.Contains(src, "func (w *World) LogMessage(ctx context.Context, msg string) error") {
		t.Errorf("unexpected signature, got:\n%s", src)
	}
	if !strings.Contains(src, "return nil") {
		t.Errorf("expected a bare nil return, got:\n%s", src)
	}
}

package assembler_test

import (
	"strings"
	"testing"

	"github.com/bytecodealliance/wasm-tools-go/wit"

	"github.com/wasmgravity/gravity/internal/assembler"
	"github.com/wasmgravity/gravity/internal/witsource"
)

// minimalWorld builds a *wit.World exporting one freestanding function,
// with no imports, wrapping it in a *wit.Resolve and witsource.Source the
// way witsource.Locate would for a module with no imported functions.
func minimalWorld(t *testing.T, worldName string, fn *wit.Function) *witsource.Source {
	t.Helper()
	pkg := &wit.Package{Name: wit.Ident{Namespace: "demo", Package: "app"}}
	world := &wit.World{Name: worldName, Package: pkg}
	world.Exports.Set(fn.Name, fn)
	pkg.Worlds.Set(worldName, world)

	resolve := &wit.Resolve{Worlds: []*wit.World{world}, Packages: []*wit.Package{pkg}}
	return &witsource.Source{Resolve: resolve, WorldName: worldName}
}

func TestAssembleEmbedsSiblingModuleByDefault(t *testing.T) {
	fn := &wit.Function{
		Name:    "s8-roundtrip",
		Params:  []wit.Param{{Name: "x", Type: wit.S8{}}},
		Results: []wit.Param{{Type: wit.S8{}}},
	}
	source := minimalWorld(t, "demo", fn)

	result, err := assembler.Assemble(assembler.Options{
		Source:              source,
		WasmBytes:           []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		PackageImportPath:   "example.com/gen",
		SiblingWasmFileName: "demo.wasm",
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if result.SiblingWasmBytes == nil {
		t.Fatal("expected sibling Wasm bytes to be retained by default")
	}

	file := result.Package.Files()["world.go"]
	src := string(file.Content)
	if !strings.Contains(src, "//go:embed demo.wasm") {
		t.Errorf("expected a go:embed directive, got:\n%s", src)
	}
	if !strings.Contains(src, "func NewDemoFactory(") {
		t.Errorf("expected a factory constructor, got:\n%s", src)
	}
	if !strings.Contains(src, "func (w *DemoInstance) S8Roundtrip(") {
		t.Errorf("expected an exported function method, got:\n%s", src)
	}
}

func TestAssembleInlineWasmEmitsHexLiteral(t *testing.T) {
	fn := &wit.Function{Name: "ping"}
	source := minimalWorld(t, "demo", fn)
	source.SectionName = "" // exercised via --wit-file, so nothing to strip

	wasmBytes := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	result, err := assembler.Assemble(assembler.Options{
		Source:             source,
		WasmBytes:          wasmBytes,
		PackageImportPath:  "example.com/gen",
		InlineWasm:         true,
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if result.SiblingWasmBytes != nil {
		t.Error("inline-wasm mode should not produce a sibling file")
	}

	file := result.Package.Files()["world.go"]
	src := string(file.Content)
	if !strings.Contains(src, "rawModuleHex") {
		t.Errorf("expected a hex literal, got:\n%s", src)
	}
	if strings.Contains(src, "go:embed") {
		t.Errorf("inline-wasm mode should not emit a go:embed directive, got:\n%s", src)
	}
}

// TestAssembleSynthesizesImportTraitAndDispatcher guards against the
// regression where imported interfaces were never synthesized: NewFactory
// always got a nil host module set and a world with imports would trap on
// first call to one of them.
func TestAssembleSynthesizesImportTraitAndDispatcher(t *testing.T) {
	exportFn := &wit.Function{Name: "ping"}
	importFn := &wit.Function{
		Name:    "log-line",
		Params:  []wit.Param{{Name: "msg", Type: wit.String{}}},
		Results: nil,
	}

	source := minimalWorld(t, "demo", exportFn)
	source.Resolve.Worlds[0].Imports.Set(importFn.Name, importFn)

	result, err := assembler.Assemble(assembler.Options{
		Source:              source,
		WasmBytes:           []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		PackageImportPath:   "example.com/gen",
		SiblingWasmFileName: "demo.wasm",
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	src := string(result.Package.Files()["world.go"].Content)
	if !strings.Contains(src, "type DemoImports interface {") {
		t.Errorf("expected an import trait declaration, got:\n%s", src)
	}
	if !strings.Contains(src, "LogLine(ctx context.Context, msg string) error") {
		t.Errorf("expected an import trait method for log-line, got:\n%s", src)
	}
	if !strings.Contains(src, "func NewDemoFactory(ctx context.Context, runtime wazero.Runtime, imports DemoImports)") {
		t.Errorf("expected the factory constructor to accept a DemoImports implementation, got:\n%s", src)
	}
	if !strings.Contains(src, `map[string]wazerohost.HostModule{`) || !strings.Contains(src, `"$root"`) {
		t.Errorf("expected a non-nil host module map keyed by $root, got:\n%s", src)
	}
	if !strings.Contains(src, `"log-line": `) {
		t.Errorf("expected the dispatcher to be registered under its export name, got:\n%s", src)
	}
	if strings.Contains(src, "NewFactory(ctx, runtime, rawModule, nil)") {
		t.Errorf("a world with imports must not register a nil host module set, got:\n%s", src)
	}
}

func TestAssembleUnknownWorldIsInputError(t *testing.T) {
	fn := &wit.Function{Name: "ping"}
	source := minimalWorld(t, "demo", fn)

	_, err := assembler.Assemble(assembler.Options{
		Source:              source,
		WorldName:           "missing",
		WasmBytes:           []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		PackageImportPath:   "example.com/gen",
		SiblingWasmFileName: "demo.wasm",
	})
	if err == nil {
		t.Fatal("expected an error for an unknown world name")
	}
}

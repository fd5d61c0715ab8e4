// Package witsource locates the embedded WIT description inside a core
// Wasm module and hands it to the external WIT resolver (spec.md §6,
// "Input"). It never reads WIT binary encodings itself: custom-section
// discovery is delegated to wazero's own CompiledModule.CustomSections,
// and the section payload is handed to
// github.com/bytecodealliance/wasm-tools-go/wit's JSON decoder, which is
// the format wasm-tools emits for `component-type:<world>` sections.
package witsource

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bytecodealliance/wasm-tools-go/wit"
	"github.com/tetratelabs/wazero"
)

// sectionPrefix is the custom-section name prefix the generator looks
// for, per spec.md §6: "component-type:<world-name> or equivalent".
const sectionPrefix = "component-type:"

// Source is a resolved WIT world together with the metadata needed to
// report it back to the caller and, when embedding is requested, to
// locate the section that must be stripped before the Wasm bytes are
// inlined.
type Source struct {
	Resolve     *wit.Resolve
	WorldName   string
	SectionName string // empty if WIT came from an external --wit-file
}

// Locate finds and decodes the embedded WIT description in wasmBytes. If
// witFilePath is non-empty, it is read and decoded instead of any custom
// section (spec.md §6, `--wit-file`), and Source.SectionName is left
// empty since there is then no in-module section to strip.
func Locate(ctx context.Context, wasmBytes []byte, witFilePath string) (*Source, error) {
	if witFilePath != "" {
		data, err := os.ReadFile(witFilePath)
		if err != nil {
			return nil, fmt.Errorf("witsource: reading %s: %w", witFilePath, err)
		}
		res, err := wit.DecodeJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("witsource: decoding %s: %w", witFilePath, err)
		}
		return &Source{Resolve: res}, nil
	}

	name, payload, err := findComponentTypeSection(ctx, wasmBytes)
	if err != nil {
		return nil, err
	}
	res, err := wit.DecodeJSON(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("witsource: decoding custom section %q: %w", name, err)
	}
	world := strings.TrimPrefix(name, sectionPrefix)
	return &Source{Resolve: res, WorldName: world, SectionName: name}, nil
}

// findComponentTypeSection compiles wasmBytes under a throwaway runtime
// just far enough to enumerate its custom sections, then returns the
// first one whose name carries the component-type prefix.
func findComponentTypeSection(ctx context.Context, wasmBytes []byte) (name string, payload []byte, err error) {
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		return "", nil, fmt.Errorf("witsource: compiling module: %w", err)
	}
	defer compiled.Close(ctx)

	for _, sec := range compiled.CustomSections() {
		if strings.HasPrefix(sec.Name(), sectionPrefix) {
			return sec.Name(), sec.Data(), nil
		}
	}
	return "", nil, fmt.Errorf("witsource: no %s* custom section found", sectionPrefix)
}

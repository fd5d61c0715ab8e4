// Package wazerohost is the concrete implementation of the "generated-code
// ABI contract" described in SPEC_FULL.md §3.2: every factory/instance pair
// emitted by internal/assembler is written against this package's Instance
// type, which satisfies the contract purely in terms of
// github.com/tetratelabs/wazero/api — ExportedFunction(name).Call(ctx,
// args...) ([]uint64, error), and a Memory with byte-slice Read/Write.
//
// Grounded on github.com/tetratelabs/wazero/api (api.Module, api.Memory,
// api.Function) and wazero's own runtime/module-builder surface. Generated
// code reaches wazero only through this package; within the generator
// itself, internal/witsource is the one package that imports wazero
// directly.
package wazerohost

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Instance is a single instantiation of a compiled Wasm module, wrapping
// the api.Module that generated code drives. Each exported function call
// and memory access happens through this type; generated code never
// touches the wazero.Runtime directly.
type Instance struct {
	runtime wazero.Runtime
	module  api.Module
}

// Close closes the underlying module instance only; the compiled module
// and the runtime stay open (Factory.Close releases the compiled module).
func (in *Instance) Close(ctx context.Context) error {
	if in.module == nil {
		return nil
	}
	return in.module.Close(ctx)
}

// CallFunction invokes the exported function named name with args encoded
// per the Canonical ABI's core-Wasm flattening, returning its raw i32/i64/
// f32/f64 results as the generated lift code expects to receive them.
func (in *Instance) CallFunction(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn := in.module.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("wazerohost: module has no exported function %q", name)
	}
	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("wazerohost: calling %q: %w", name, err)
	}
	return results, nil
}

// Realloc invokes the module's cabi_realloc export, the allocator every
// Canonical ABI guest module is required to provide for host-initiated
// allocation of strings, lists, and variant payloads (spec.md §4.6 "List
// and string lifting/lowering").
func (in *Instance) Realloc(ctx context.Context, oldPtr, oldSize, align, newSize uint32) (uint32, error) {
	results, err := in.CallFunction(ctx, "cabi_realloc",
		uint64(oldPtr), uint64(oldSize), uint64(align), uint64(newSize))
	if err != nil {
		return 0, fmt.Errorf("wazerohost: cabi_realloc: %w", err)
	}
	if len(results) != 1 {
		return 0, fmt.Errorf("wazerohost: cabi_realloc returned %d results, want 1", len(results))
	}
	return uint32(results[0]), nil
}

// Read returns byteCount bytes from the instance's linear memory starting
// at offset, or an error if the range is out of bounds.
func (in *Instance) Read(offset, byteCount uint32) ([]byte, error) {
	buf, ok := in.module.Memory().Read(offset, byteCount)
	if !ok {
		return nil, fmt.Errorf("wazerohost: out-of-bounds read at offset %d, length %d", offset, byteCount)
	}
	return buf, nil
}

// Write copies data into the instance's linear memory starting at offset,
// or returns an error if the range is out of bounds.
func (in *Instance) Write(offset uint32, data []byte) error {
	if !in.module.Memory().Write(offset, data) {
		return fmt.Errorf("wazerohost: out-of-bounds write at offset %d, length %d", offset, len(data))
	}
	return nil
}

// ReadString returns the string of byteLen bytes stored at offset in the
// instance's linear memory. The bytes are converted as they are; they are
// not checked for valid UTF-8.
func (in *Instance) ReadString(offset, byteLen uint32) (string, error) {
	buf, err := in.Read(offset, byteLen)
	if err != nil {
		return "", fmt.Errorf("wazerohost: reading string: %w", err)
	}
	return string(buf), nil
}

// ModuleRead, ModuleWrite and ModuleReadString are Read/Write/ReadString's
// counterparts for host-dispatcher code: a generated import dispatcher runs
// as an api.GoModuleFunc and is only ever handed the api.Module the call
// arrived on, never an *Instance, so it reaches linear memory through these
// instead.
func ModuleRead(mod api.Module, offset, byteCount uint32) ([]byte, error) {
	buf, ok := mod.Memory().Read(offset, byteCount)
	if !ok {
		return nil, fmt.Errorf("wazerohost: out-of-bounds read at offset %d, length %d", offset, byteCount)
	}
	return buf, nil
}

func ModuleWrite(mod api.Module, offset uint32, data []byte) error {
	if !mod.Memory().Write(offset, data) {
		return fmt.Errorf("wazerohost: out-of-bounds write at offset %d, length %d", offset, len(data))
	}
	return nil
}

func ModuleReadString(mod api.Module, offset, byteLen uint32) (string, error) {
	buf, err := ModuleRead(mod, offset, byteLen)
	if err != nil {
		return "", fmt.Errorf("wazerohost: reading string: %w", err)
	}
	return string(buf), nil
}

// ModuleRealloc invokes mod's cabi_realloc export directly, the
// dispatcher-side counterpart to Instance.Realloc, needed when a host
// import function's result must allocate guest memory to return a string
// or list back into the calling module.
func ModuleRealloc(ctx context.Context, mod api.Module, oldPtr, oldSize, align, newSize uint32) (uint32, error) {
	fn := mod.ExportedFunction("cabi_realloc")
	if fn == nil {
		return 0, fmt.Errorf("wazerohost: module has no cabi_realloc export")
	}
	results, err := fn.Call(ctx, uint64(oldPtr), uint64(oldSize), uint64(align), uint64(newSize))
	if err != nil {
		return 0, fmt.Errorf("wazerohost: cabi_realloc: %w", err)
	}
	if len(results) != 1 {
		return 0, fmt.Errorf("wazerohost: cabi_realloc returned %d results, want 1", len(results))
	}
	return uint32(results[0]), nil
}

package wazerohost

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Factory compiles a Wasm module once and instantiates it as many times as
// callers need, matching the teacher's module/instance split: compilation
// (validation, parsing) is the expensive, shareable step, instantiation
// (fresh linear memory, fresh resource tables) is cheap and per-use.
//
// Generated world bindings embed a Factory and add one typed
// "NewXFactory"/"Instantiate" pair per world on top of it; Factory itself
// is world-agnostic.
type Factory struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
}

// HostModule is one imported WIT interface's worth of host functions,
// keyed by export name within that interface's two-level WebAssembly
// import namespace. Generated code builds one HostModule per imported
// interface and hands the whole set to NewFactory.
type HostModule map[string]api.GoModuleFunc

// NewFactory compiles wasmBytes under runtime and registers hostModules,
// the imported-interface implementations the module's imports require,
// keyed by WebAssembly import module name.
func NewFactory(ctx context.Context, runtime wazero.Runtime, wasmBytes []byte, hostModules map[string]HostModule) (*Factory, error) {
	for moduleName, fns := range hostModules {
		builder := runtime.NewHostModuleBuilder(moduleName)
		for name, fn := range fns {
			builder.NewFunctionBuilder().WithGoModuleFunction(fn, nil, nil).Export(name)
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			return nil, fmt.Errorf("wazerohost: registering host module %q: %w", moduleName, err)
		}
	}

	compiled, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("wazerohost: compiling module: %w", err)
	}
	return &Factory{runtime: runtime, compiled: compiled}, nil
}

// Instantiate creates a fresh Instance from the compiled module, giving it
// its own linear memory and, implicitly, its own resource tables (those
// live in the generated instance struct, not here).
func (f *Factory) Instantiate(ctx context.Context, moduleConfig wazero.ModuleConfig) (*Instance, error) {
	if moduleConfig == nil {
		moduleConfig = wazero.NewModuleConfig()
	}
	mod, err := f.runtime.InstantiateModule(ctx, f.compiled, moduleConfig)
	if err != nil {
		return nil, fmt.Errorf("wazerohost: instantiating module: %w", err)
	}
	return &Instance{runtime: f.runtime, module: mod}, nil
}

// Close releases the compiled module. It does not close the
// wazero.Runtime the Factory was built with.
func (f *Factory) Close(ctx context.Context) error {
	return f.compiled.Close(ctx)
}

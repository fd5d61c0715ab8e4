// Command gravity reads a core Wasm module carrying an embedded WIT
// description and emits a single Go source file that drives the module
// through github.com/tetratelabs/wazero as if it were a full Component
// (SPEC_FULL.md §2.3).
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wasmgravity/gravity/internal/assembler"
	"github.com/wasmgravity/gravity/internal/gopkg"
	"github.com/wasmgravity/gravity/internal/gravityerr"
	"github.com/wasmgravity/gravity/internal/gravitylog"
	"github.com/wasmgravity/gravity/internal/gravityversion"
	"github.com/wasmgravity/gravity/internal/ociwasm"
	"github.com/wasmgravity/gravity/internal/witsource"
)

func main() {
	cmd := &cli.Command{
		Name:    "gravity",
		Usage:   "generate Go bindings for a WebAssembly Component Model world",
		Version: gravityversion.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "world", Aliases: []string{"w"}, Usage: "world to bind when multiple are present"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "target file for generated source (default: derived from world name)"},
			&cli.StringFlag{Name: "wit-file", Usage: "resolve WIT from an external file instead of the module's custom section"},
			&cli.BoolFlag{Name: "inline-wasm", Usage: "embed Wasm bytes as a hex literal instead of a sibling .wasm file"},
			&cli.StringFlag{Name: "package-root", Aliases: []string{"p"}, Usage: "Go import path prefix for the generated package"},
			&cli.BoolFlag{Name: "registry", Usage: "treat the positional argument as an OCI reference, not a filesystem path"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable info-level logging"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug-level logging"},
		},
		Action: run,
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gravity: %v\n", err)
		os.Exit(gravityerr.ExitCode(err))
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	log := gravitylog.FromFlags(os.Stderr, cmd.Bool("verbose"), cmd.Bool("debug"))

	path := cmd.Args().First()
	if path == "" {
		return gravityerr.Input("missing positional Wasm module path", nil)
	}

	wasmBytes, err := loadModule(ctx, path, cmd.Bool("registry"), log)
	if err != nil {
		return err
	}

	source, err := witsource.Locate(ctx, wasmBytes, cmd.String("wit-file"))
	if err != nil {
		return gravityerr.Input("locating WIT description", err)
	}
	log.Infof("resolved WIT description, world %q", source.WorldName)

	outPath, err := outputPath(cmd, source)
	if err != nil {
		return err
	}

	pkgRoot := cmd.String("package-root")
	if pkgRoot == "" {
		pkgRoot, err = gopkg.ImportPath(filepath.Dir(outPath))
		if err != nil {
			return gravityerr.Input("resolving enclosing Go module for --package-root", err)
		}
	}
	log.Debugf("package root: %s", pkgRoot)

	result, err := assembler.Assemble(assembler.Options{
		Source:              source,
		WorldName:           cmd.String("world"),
		WasmBytes:           wasmBytes,
		PackageImportPath:   pkgRoot,
		InlineWasm:          cmd.Bool("inline-wasm"),
		SiblingWasmFileName: strings.TrimSuffix(filepath.Base(outPath), ".go") + ".wasm",
	})
	if err != nil {
		return err
	}
	log.Infof("assembled bindings for world %q", result.WorldName)

	return writeOutput(outPath, result, log)
}

// loadModule reads the input Wasm module from an OCI registry reference
// when --registry is set or when path is not an existing file but parses
// as a reference (ociwasm.IsReference), and from the local path otherwise.
func loadModule(ctx context.Context, path string, registry bool, log gravitylog.Logger) ([]byte, error) {
	if registry {
		log.Infof("pulling Wasm module from registry reference %s", path)
		data, err := ociwasm.PullModule(ctx, path)
		if err != nil {
			return nil, gravityerr.Input(fmt.Sprintf("pulling %s from registry", path), err)
		}
		return data, nil
	}
	if ociwasm.IsReference(path) {
		log.Infof("%s looks like an OCI reference; pulling it (pass --registry explicitly next time)", path)
		data, err := ociwasm.PullModule(ctx, path)
		if err != nil {
			return nil, gravityerr.Input(fmt.Sprintf("pulling %s from registry", path), err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gravityerr.IO(path, err)
	}
	return data, nil
}

// outputPath resolves --output, defaulting to "<world>.gravity.go" in the
// working directory when unset.
func outputPath(cmd *cli.Command, source *witsource.Source) (string, error) {
	if out := cmd.String("output"); out != "" {
		return out, nil
	}
	name := source.WorldName
	if name == "" {
		name = "world"
	}
	return name + ".gravity.go", nil
}

// writeOutput formats every file in result.Package and writes it to disk,
// alongside the sibling Wasm file when embedding wasn't inlined. Nothing
// is written until every file has rendered successfully (SPEC_FULL.md
// §2.4).
func writeOutput(outPath string, result *assembler.Result, log gravitylog.Logger) error {
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return gravityerr.IO(dir, err)
	}

	type rendered struct {
		path    string
		content []byte
	}
	var files []rendered
	for name, file := range result.Package.Files() {
		if !file.HasContent() {
			continue
		}
		content, err := file.Bytes()
		if err != nil {
			return gravityerr.Translation(name, "formatting generated source", err)
		}
		files = append(files, rendered{path: filepath.Join(dir, filepath.Base(outPath)), content: content})
	}

	for _, f := range files {
		if err := os.WriteFile(f.path, f.content, 0o644); err != nil {
			return gravityerr.IO(f.path, err)
		}
		log.Infof("wrote %s", f.path)
	}

	if result.SiblingWasmBytes != nil {
		siblingPath := filepath.Join(dir, strings.TrimSuffix(filepath.Base(outPath), ".go")+".wasm")
		if err := os.WriteFile(siblingPath, result.SiblingWasmBytes, 0o644); err != nil {
			return gravityerr.IO(siblingPath, err)
		}
		log.Infof("wrote %s", siblingPath)
	}
	return nil
}

package gengo

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/tools/imports"
)

// File is the append-only token stream described in SPEC_FULL.md §4.3: every
// emitter writes finished Go statements into Content via Write, references
// another package's declaration via Import/RelativeName (never by
// hand-writing an import path as a free string), and reserves identifiers
// via DeclareName. Bytes renders the accumulated stream into gofmt'd source,
// computing the import block purely from the Imports map — nothing after
// Write may re-inspect what was written.
type File struct {
	Name    string
	Package *Package

	// GoBuild, if non-empty, becomes a "//go:build" constraint line.
	GoBuild string
	// Header is emitted verbatim before the package clause (license, a
	// do-not-edit notice, a generator version stamp).
	Header string
	// PackageDocs is the doc comment directly above "package NAME".
	PackageDocs string
	// Trailer is emitted verbatim after Content.
	Trailer string
	// GeneratedBy records which generation pass produced this file, for
	// diagnostics; it does not by itself mark the file as having content.
	GeneratedBy string

	// Imports maps an import path to its local name in this file ("_" for
	// a blank import). Populated exclusively through Import.
	Imports map[string]string

	// Content holds already-rendered Go statements, in append order.
	Content []byte

	scope Scope
}

// IsGo reports whether this file's name identifies it as Go source, as
// opposed to e.g. a sibling ".wasm" data file tracked for bookkeeping only.
func (f *File) IsGo() bool {
	return strings.HasSuffix(f.Name, ".go")
}

// HasContent reports whether f would render anything beyond an empty
// package clause: non-empty Content, a package doc comment, a header,
// trailer, or at least one blank ("_") import. A bare GoBuild tag or
// GeneratedBy marker alone does not count.
func (f *File) HasContent() bool {
	if len(f.Content) > 0 {
		return true
	}
	if f.PackageDocs != "" || f.Header != "" || f.Trailer != "" {
		return true
	}
	for _, name := range f.Imports {
		if name == "_" {
			return true
		}
	}
	return false
}

// fileScope lazily creates a Scope nested under the file's package, so
// names declared in one file don't collide with another file's imports or
// declarations within the same package.
func (f *File) fileScope() Scope {
	if f.scope == nil {
		f.scope = NewScope(packageNameScope{f.Package})
	}
	return f.scope
}

// packageNameScope adapts Package's declared-name tracking to the Scope
// interface so per-file scopes nest under it.
type packageNameScope struct{ pkg *Package }

func (s packageNameScope) HasName(name string) bool    { return s.pkg.HasName(name) }
func (s packageNameScope) DeclareName(name string) string { return s.pkg.DeclareName(name) }

// DeclareName reserves name within this file (and transitively, this
// file's package), returning the name actually reserved.
func (f *File) DeclareName(name string) string {
	return f.fileScope().DeclareName(name)
}

// HasName reports whether name is already declared in this file or its
// package.
func (f *File) HasName(name string) bool {
	return f.fileScope().HasName(name)
}

// Import records a reference to another Go package and returns the local
// name this file will use for it. Repeated calls for the same import path
// always return the same local name, even if a different explicit "#name"
// suffix is supplied on a later call — the first call to see an import
// path wins the naming.
func (f *File) Import(selector string) string {
	importPath, name := ParseImportPath(selector)
	if local, ok := f.Imports[importPath]; ok {
		return local
	}
	local := name
	for f.HasName(local) || f.importNameTaken(local) {
		local += "_"
	}
	f.fileScope().DeclareName(local)
	f.Imports[importPath] = local
	return local
}

// BlankImport records a side-effect-only ("_") import of path.
func (f *File) BlankImport(path string) {
	if _, ok := f.Imports[path]; !ok {
		f.Imports[path] = "_"
	}
}

func (f *File) importNameTaken(name string) bool {
	for _, local := range f.Imports {
		if local == name {
			return true
		}
	}
	return false
}

// RelativeName renders a reference to the declaration name owned by pkg,
// qualifying it with this file's import alias for pkg unless pkg is the
// file's own package.
func (f *File) RelativeName(pkg *Package, name string) string {
	if pkg == f.Package {
		return name
	}
	return f.Import(pkg.ImportPath) + "." + name
}

// Write appends already-rendered Go source fragments to Content.
func (f *File) Write(p []byte) {
	f.Content = append(f.Content, p...)
}

// WriteString appends already-rendered Go source fragments to Content.
func (f *File) WriteString(s string) {
	f.Content = append(f.Content, s...)
}

// Bytes renders f to final, gofmt'd source text: build tag, header,
// package clause (with PackageDocs), a computed import block, Content,
// then Trailer. This is the only place a token stream becomes text; no
// later stage may inspect Content again.
func (f *File) Bytes() ([]byte, error) {
	var buf bytes.Buffer

	if f.GoBuild != "" {
		fmt.Fprintf(&buf, "//go:build %s\n\n", f.GoBuild)
	}
	buf.WriteString(f.Header)

	if !f.IsGo() {
		buf.Write(f.Content)
		return buf.Bytes(), nil
	}

	if f.PackageDocs != "" {
		buf.WriteString(WrapDocComment(f.PackageDocs, false))
	}
	fmt.Fprintf(&buf, "package %s\n\n", f.Package.Name)

	if len(f.Imports) > 0 {
		paths := make([]string, 0, len(f.Imports))
		for path := range f.Imports {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		buf.WriteString("import (\n")
		for _, path := range paths {
			local := f.Imports[path]
			if local == "" || local == lastSegment(path) {
				fmt.Fprintf(&buf, "\t%q\n", path)
			} else {
				fmt.Fprintf(&buf, "\t%s %q\n", local, path)
			}
		}
		buf.WriteString(")\n\n")
	}

	buf.Write(f.Content)
	buf.WriteString(f.Trailer)

	// The pretty-printer: reflow and fix up imports exactly as `goimports`
	// would on save. This is the one step downstream of emission permitted
	// to touch formatting; it must never alter semantics.
	formatted, err := imports.Process(f.Name, buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("gengo: formatting %s: %w", f.Name, err)
	}
	return formatted, nil
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

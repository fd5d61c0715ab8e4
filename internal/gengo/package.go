package gengo

// Package is one Go package emitted by the assembler: a set of named Files
// sharing one import path, one package-scope Scope for deduplicating
// top-level declaration names across those files, and a records of
// cross-file Go-to-Go symbol identity (so two files emitting the same
// named type or shape reuse one declaration instead of duplicating it).
type Package struct {
	ImportPath string
	Name       string

	scope Scope
	files map[string]*File

	// decls maps an arbitrary cache key (e.g. a WIT typedef identity) to
	// the Go name already declared for it in this package, so repeated
	// requests for the same logical type across files return one name.
	decls map[any]string
}

// NewPackage creates an empty Package for importPath. The local package
// name is derived from importPath's last segment, or a "#name" suffix.
func NewPackage(importPath string) *Package {
	p := &Package{
		scope: NewScope(nil),
		files: make(map[string]*File),
		decls: make(map[any]string),
	}
	p.ImportPath, p.Name = ParseImportPath(importPath)
	return p
}

// File returns the named file in pkg, creating it if necessary.
func (pkg *Package) File(name string) *File {
	if f, ok := pkg.files[name]; ok {
		return f
	}
	f := &File{
		Name:    name,
		Package: pkg,
		Imports: make(map[string]string),
	}
	pkg.files[name] = f
	return f
}

// Files returns every file in pkg, including those with no content, keyed
// by file name.
func (pkg *Package) Files() map[string]*File {
	return pkg.files
}

// DeclareName reserves name at package scope, across all files, returning
// the (possibly suffixed) name actually reserved.
func (pkg *Package) DeclareName(name string) string {
	return pkg.scope.DeclareName(name)
}

// HasName reports whether name is already declared at package scope.
func (pkg *Package) HasName(name string) bool {
	return pkg.scope.HasName(name)
}

// DeclOnce returns the Go name previously declared for key via declare, or
// calls declare to mint one and remembers it for subsequent calls with an
// equal key. No emitter in this repository calls it; anonymous shape
// types are rendered inline by internal/surface (SPEC_FULL.md §4,
// "Anonymous vs. named type deduplication").
func (pkg *Package) DeclOnce(key any, declare func() string) (name string, alreadyDeclared bool) {
	if name, ok := pkg.decls[key]; ok {
		return name, true
	}
	name = declare()
	pkg.decls[key] = name
	return name, false
}

// HasContent reports whether any file in pkg has non-empty content.
func (pkg *Package) HasContent() bool {
	for _, f := range pkg.files {
		if len(f.Content) > 0 {
			return true
		}
	}
	return false
}

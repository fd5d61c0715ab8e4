package gengo

import "strings"

// Symbol is a reference to a package-level declaration, either in the
// package currently being generated or an imported one. It is the payload
// of a "qualified-symbol" token: the only way code written through a File
// may name a declaration that lives in another Go package, which is what
// lets the formatter compute an exact import block from usage alone.
type Symbol struct {
	ImportPath string
	Name       string
}

// ParseImportPath splits s into a Go import path and the short (package or
// declaration) name it refers to. An optional "#Name" suffix names a
// specific declaration rather than the package itself:
//
//	"io"                          -> "io", "io"
//	"encoding/json"               -> "encoding/json", "json"
//	"encoding/json#Decoder"       -> "encoding/json", "Decoder"
//	"wasi:clocks/wall-clock#Now"  -> "wasi:clocks/wall-clock", "Now"
func ParseImportPath(s string) (importPath, name string) {
	importPath, name, hasName := strings.Cut(s, "#")
	if hasName {
		return importPath, name
	}
	if i := strings.LastIndexByte(importPath, '/'); i >= 0 && i < len(importPath)-1 {
		return importPath, importPath[i+1:]
	}
	return importPath, importPath
}

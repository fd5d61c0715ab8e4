// Package gengo is the token-stream and formatting layer that every other
// Gravity code-emitting package writes through. It never interprets WIT or
// Canonical ABI semantics; it only tracks Go packages, files, imports, and
// name scopes, and renders the result to gofmt'd source text.
package gengo

// Scope represents a Go name scope: a package, a file, a function body, or a
// struct/interface method set. Names requested through a Scope are
// guaranteed unique within it and every scope it is nested inside.
type Scope interface {
	// HasName reports whether name is already declared in this scope or an
	// enclosing one.
	HasName(name string) bool

	// DeclareName reserves name in this scope, renaming it deterministically
	// (by appending "_") until it no longer collides, and returns the name
	// actually reserved. Calling DeclareName twice with the same input
	// yields two different results, so a caller keeps the returned name to
	// refer to the same logical entity again.
	DeclareName(name string) string
}

type scope struct {
	parent Scope
	names  map[string]bool
}

// NewScope returns a Scope nested inside parent. A nil parent nests inside
// the set of Go keywords and predeclared identifiers.
func NewScope(parent Scope) Scope {
	if parent == nil {
		parent = reservedScope{}
	}
	return &scope{parent: parent, names: make(map[string]bool)}
}

func (s *scope) HasName(name string) bool {
	return s.names[name] || s.parent.HasName(name)
}

func (s *scope) DeclareName(name string) string {
	for s.HasName(name) {
		name += "_"
	}
	s.names[name] = true
	return name
}

type reservedScope struct{}

func (reservedScope) HasName(name string) bool { return isReservedWord[name] }
func (reservedScope) DeclareName(string) string {
	panic("gengo: cannot declare a name in the reserved-words scope")
}

// IsReservedWord reports whether name is a Go keyword, predeclared type,
// predeclared constant, or predeclared function — anything that would
// shadow language built-ins if used as an identifier.
func IsReservedWord(name string) bool {
	return isReservedWord[name]
}

var isReservedWord = asSet(
	// keywords
	"break", "case", "chan", "const", "continue", "default", "defer", "else",
	"fallthrough", "for", "func", "go", "goto", "if", "import", "interface",
	"map", "package", "range", "return", "select", "struct", "switch", "type", "var",
	// predeclared types
	"any", "bool", "byte", "comparable", "complex64", "complex128", "error",
	"float32", "float64", "int", "int8", "int16", "int32", "int64", "rune",
	"string", "uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
	// predeclared constants and zero value
	"true", "false", "iota", "nil",
	// predeclared functions
	"append", "cap", "clear", "close", "complex", "copy", "delete", "imag",
	"len", "make", "max", "min", "new", "panic", "print", "println", "real", "recover",
)

// Initialisms holds acronyms that render as all-uppercase in exported Go
// identifiers (e.g. "cabi" -> "CABI") rather than title-case ("Cabi").
var Initialisms = asSet(
	"abi", "acl", "api", "ascii", "cabi", "cpu", "css", "cwd", "dns", "eof",
	"fifo", "guid", "html", "http", "https", "id", "imap", "io", "ip", "js",
	"json", "lhs", "mime", "oci", "posix", "qps", "ram", "rhs", "rpc", "sla",
	"smtp", "sql", "ssh", "tcp", "tls", "ttl", "tty", "udp", "ui", "uid",
	"url", "uri", "utf8", "uuid", "vm", "wasi", "wasm", "wit", "xml",
)

func asSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
